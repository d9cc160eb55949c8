package crawl

import (
	"context"
	"time"
)

// JobStore persists job records keyed by id, insertion order preserved.
type JobStore interface {
	GetAll(ctx context.Context) ([]Job, error)
	Get(ctx context.Context, id string) (Job, bool, error)
	Save(ctx context.Context, job Job) error
	Delete(ctx context.Context, id string) error
}

// SettingsStore persists the settings singleton. Get never fails on a
// missing or unreadable record; it falls back to compiled-in defaults.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// AuthProfileStore persists auth profile records.
type AuthProfileStore interface {
	GetAll(ctx context.Context) ([]AuthProfile, error)
	Get(ctx context.Context, id string) (AuthProfile, bool, error)
	Save(ctx context.Context, profile AuthProfile) error
	Delete(ctx context.Context, id string) error
}

// ProviderStore persists the LLM provider registry. An empty backing file
// reads as the seeded default registry.
type ProviderStore interface {
	GetAll(ctx context.Context) ([]LLMProvider, error)
	Get(ctx context.Context, id string) (LLMProvider, bool, error)
	Save(ctx context.Context, provider LLMProvider) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator allocates record identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
)

// File names under the storage root, one per record kind.
const (
	jobsFile      = "jobs.json"
	settingsFile  = "settings.json"
	profilesFile  = "auth-profiles.json"
	providersFile = "llm-providers.json"
)

// JobStore persists crawl jobs.
type JobStore struct {
	col collection[crawl.Job]
}

// NewJobStore creates a job store rooted at root.
func NewJobStore(root string) *JobStore {
	return &JobStore{col: newCollection(root, jobsFile, func(j crawl.Job) string { return j.ID })}
}

// GetAll returns all jobs in insertion order.
func (s *JobStore) GetAll(ctx context.Context) ([]crawl.Job, error) {
	return s.col.getAll(ctx)
}

// Get returns the job with the given id, if present.
func (s *JobStore) Get(ctx context.Context, id string) (crawl.Job, bool, error) {
	return s.col.get(ctx, id)
}

// Save upserts the job and rewrites the collection.
func (s *JobStore) Save(ctx context.Context, job crawl.Job) error {
	return s.col.save(ctx, job)
}

// Delete removes the job; a missing id is a no-op.
func (s *JobStore) Delete(ctx context.Context, id string) error {
	return s.col.delete(ctx, id)
}

// AuthProfileStore persists auth profiles.
type AuthProfileStore struct {
	col collection[crawl.AuthProfile]
}

// NewAuthProfileStore creates an auth profile store rooted at root.
func NewAuthProfileStore(root string) *AuthProfileStore {
	return &AuthProfileStore{col: newCollection(root, profilesFile, func(p crawl.AuthProfile) string { return p.ID })}
}

// GetAll returns all profiles in insertion order.
func (s *AuthProfileStore) GetAll(ctx context.Context) ([]crawl.AuthProfile, error) {
	return s.col.getAll(ctx)
}

// Get returns the profile with the given id, if present.
func (s *AuthProfileStore) Get(ctx context.Context, id string) (crawl.AuthProfile, bool, error) {
	return s.col.get(ctx, id)
}

// Save upserts the profile.
func (s *AuthProfileStore) Save(ctx context.Context, profile crawl.AuthProfile) error {
	return s.col.save(ctx, profile)
}

// Delete removes the profile; a missing id is a no-op.
func (s *AuthProfileStore) Delete(ctx context.Context, id string) error {
	return s.col.delete(ctx, id)
}

// SettingsStore persists the settings singleton as its own file. A missing
// or corrupt file reads as the compiled-in defaults; nothing is written
// until the first save.
type SettingsStore struct {
	path     string
	defaults crawl.Settings
}

// NewSettingsStore creates a settings store rooted at root, falling back
// to defaults when no record exists.
func NewSettingsStore(root string, defaults crawl.Settings) *SettingsStore {
	return &SettingsStore{
		path:     filepath.Join(root, settingsFile),
		defaults: defaults,
	}
}

// Get returns the persisted settings or the defaults.
func (s *SettingsStore) Get(_ context.Context) (crawl.Settings, error) {
	if err := ensureDir(filepath.Dir(s.path)); err != nil {
		return crawl.Settings{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.defaults, nil
	}
	var settings crawl.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return s.defaults, nil
	}
	return settings, nil
}

// Save rewrites the settings file.
func (s *SettingsStore) Save(_ context.Context, settings crawl.Settings) error {
	if err := ensureDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ProviderStore persists the LLM provider registry. Until the first save,
// reads return the seeded default registry; the first save then persists
// the whole set.
type ProviderStore struct {
	col collection[crawl.LLMProvider]
}

// NewProviderStore creates a provider store rooted at root.
func NewProviderStore(root string) *ProviderStore {
	return &ProviderStore{col: newCollection(root, providersFile, func(p crawl.LLMProvider) string { return p.ID })}
}

// GetAll returns the persisted registry, or the seeded defaults when no
// providers have been written yet.
func (s *ProviderStore) GetAll(ctx context.Context) ([]crawl.LLMProvider, error) {
	providers, err := s.col.getAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return crawl.DefaultProviders(), nil
	}
	return providers, nil
}

// Get returns the provider with the given id, if present.
func (s *ProviderStore) Get(ctx context.Context, id string) (crawl.LLMProvider, bool, error) {
	providers, err := s.GetAll(ctx)
	if err != nil {
		return crawl.LLMProvider{}, false, err
	}
	for _, p := range providers {
		if p.ID == id {
			return p, true, nil
		}
	}
	return crawl.LLMProvider{}, false, nil
}

// Save upserts the provider into the registry, seeding the defaults on the
// way if the file did not exist yet.
func (s *ProviderStore) Save(ctx context.Context, provider crawl.LLMProvider) error {
	providers, err := s.GetAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i, p := range providers {
		if p.ID == provider.ID {
			providers[i] = provider
			replaced = true
			break
		}
	}
	if !replaced {
		providers = append(providers, provider)
	}
	return s.col.writeAll(providers)
}

package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
)

func TestJobStoreEmpty(t *testing.T) {
	t.Parallel()

	store := NewJobStore(t.TempDir())
	jobs, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestJobStoreSaveAppendsInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore(t.TempDir())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, crawl.Job{ID: id, Status: crawl.JobStatusQueued}))
	}

	jobs, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Equal(t, "a", jobs[0].ID)
	require.Equal(t, "b", jobs[1].ID)
	require.Equal(t, "c", jobs[2].ID)
}

func TestJobStoreSaveReplacesInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore(t.TempDir())
	require.NoError(t, store.Save(ctx, crawl.Job{ID: "a", Status: crawl.JobStatusQueued}))
	require.NoError(t, store.Save(ctx, crawl.Job{ID: "b", Status: crawl.JobStatusQueued}))
	require.NoError(t, store.Save(ctx, crawl.Job{ID: "a", Status: crawl.JobStatusCompleted}))

	jobs, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "a", jobs[0].ID)
	require.Equal(t, crawl.JobStatusCompleted, jobs[0].Status)
}

func TestJobStoreDeleteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore(t.TempDir())
	require.NoError(t, store.Save(ctx, crawl.Job{ID: "a"}))

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	jobs, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestJobStoreCorruptFileReadsAsEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "jobs.json"), []byte("{not json"), 0o600))

	store := NewJobStore(root)
	jobs, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, jobs)

	// The next save replaces the corrupt file with a valid collection.
	require.NoError(t, store.Save(context.Background(), crawl.Job{ID: "a"}))
	jobs, err = store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestJobStoreRoundTripsTimestampsAndPayloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore(t.TempDir())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	done := now.Add(time.Minute)
	job := crawl.Job{
		ID:          "a",
		Status:      crawl.JobStatusCompleted,
		Config:      json.RawMessage(`{"urls":["https://example.com"]}`),
		Result:      json.RawMessage(`[{"url":"https://example.com","success":true}]`),
		CreatedAt:   now,
		UpdatedAt:   done,
		CompletedAt: &done,
	}
	require.NoError(t, store.Save(ctx, job))

	got, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, now.Equal(got.CreatedAt))
	require.NotNil(t, got.CompletedAt)
	require.JSONEq(t, string(job.Config), string(got.Config))
	require.JSONEq(t, string(job.Result), string(got.Result))
}

// Two saves derived from the same snapshot: the second write wins wholly
// and the first save's change to shared fields is lost. This is the
// documented last-write-wins behavior of whole-file persistence with no
// locking; do not rely on field-level merging.
func TestCollectionLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJobStore(t.TempDir())
	require.NoError(t, store.Save(ctx, crawl.Job{ID: "a", Status: crawl.JobStatusQueued}))

	snapshot, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)

	first := snapshot
	first.Status = crawl.JobStatusRunning
	second := snapshot
	second.Error = "stale writer"

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, _, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, crawl.JobStatusQueued, got.Status) // first writer's transition lost
	require.Equal(t, "stale writer", got.Error)
}

func TestSettingsStoreDefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	defaults := crawl.Settings{
		CrawlBaseURL:       "http://crawl4ai:11235",
		LLMBaseURL:         "http://litellm:4000",
		DefaultCrawlDepth:  2,
		DefaultConcurrency: 5,
	}
	store := NewSettingsStore(t.TempDir(), defaults)

	settings, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaults, settings)
}

func TestSettingsStoreDefaultsWhenCorrupt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.json"), []byte("][]"), 0o600))

	defaults := crawl.Settings{CrawlBaseURL: "http://crawl4ai:11235"}
	store := NewSettingsStore(root, defaults)
	settings, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaults, settings)
}

func TestSettingsStoreSaveAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewSettingsStore(t.TempDir(), crawl.Settings{CrawlBaseURL: "http://default"})

	saved := crawl.Settings{
		CrawlBaseURL:       "http://crawler:9999",
		ActiveLLMProvider:  "openai/gpt-4o-mini",
		DefaultConcurrency: 10,
	}
	require.NoError(t, store.Save(ctx, saved))

	settings, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, settings)
}

func TestProviderStoreSeedsDefaults(t *testing.T) {
	t.Parallel()

	store := NewProviderStore(t.TempDir())
	providers, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, providers, 5)
	require.Equal(t, "openai", providers[0].ID)
	require.True(t, providers[0].Enabled)
}

func TestProviderStoreSavePersistsSeededRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewProviderStore(t.TempDir())

	p, found, err := store.Get(ctx, "anthropic")
	require.NoError(t, err)
	require.True(t, found)
	p.Enabled = true
	require.NoError(t, store.Save(ctx, p))

	providers, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 5)

	got, found, err := store.Get(ctx, "anthropic")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, got.Enabled)
}

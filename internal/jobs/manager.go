// Package jobs owns the crawl job state machine: submission, background
// execution against the crawl engine, terminal bookkeeping, and the
// one-shot restart recovery pass.
//
// Every submission spawns its own goroutine; there is no worker pool and
// no cap on in-flight gateway calls. That unbounded fan-out is accepted
// for single-operator use, and the in-flight gauge keeps it observable.
// The recovery heuristic likewise assumes a single instance: a running
// job found at startup can only be a leftover of the previous process.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
	"github.com/josiah-nelson/crawldeck/internal/gateway"
	"github.com/josiah-nelson/crawldeck/internal/metrics"
)

// Gateway is the downstream crawl call the manager delegates to.
type Gateway interface {
	Crawl(ctx context.Context, baseURL string, config json.RawMessage) (json.RawMessage, error)
}

// Manager is the sole writer of job records. It transitions jobs through
// queued, running and the terminal states, persisting every transition.
type Manager struct {
	store    crawl.JobStore
	settings crawl.SettingsStore
	gateway  Gateway
	clock    crawl.Clock
	ids      crawl.IDGenerator
	logger   *zap.Logger

	recoverOnce sync.Once
}

// NewManager constructs a Manager.
func NewManager(
	store crawl.JobStore,
	settings crawl.SettingsStore,
	gw Gateway,
	clock crawl.Clock,
	ids crawl.IDGenerator,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:    store,
		settings: settings,
		gateway:  gw,
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
}

// Submit persists a new queued job and schedules its execution without
// waiting for it. The returned id is immediately pollable.
func (m *Manager) Submit(ctx context.Context, config json.RawMessage) (string, error) {
	id, err := m.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	now := m.clock.Now()
	job := crawl.Job{
		ID:        id,
		Status:    crawl.JobStatusQueued,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	go m.execute(id)

	return id, nil
}

// Get fetches a job by id.
func (m *Manager) Get(ctx context.Context, id string) (crawl.Job, bool, error) {
	return m.store.Get(ctx, id)
}

// List returns all jobs in insertion order. The first call also runs the
// restart recovery pass; recovery problems are logged, never returned, so
// the listing always succeeds with whatever is readable.
func (m *Manager) List(ctx context.Context) ([]crawl.Job, error) {
	m.RecoverOnce(ctx)
	jobs, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes the job record. Deleting an unknown id is a no-op. No
// cancellation is sent to an in-flight execution; when it finishes, its
// final save resurrects the record.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// execute drives one job from queued to a terminal state. It runs detached
// from any request, so failures are recorded into the job, never returned.
func (m *Manager) execute(jobID string) {
	ctx := context.Background()
	log := m.logger.With(zap.String("job_id", jobID))

	metrics.IncInflightJobs()
	defer metrics.DecInflightJobs()

	job, found, err := m.store.Get(ctx, jobID)
	if err != nil || !found {
		log.Warn("job vanished before execution", zap.Error(err))
		return
	}

	// The final save always runs, so the persisted record reflects the
	// last transition even if something below went sideways.
	defer m.finalize(ctx, jobID, log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("job execution panicked", zap.Any("panic", r))
			m.recordFailure(ctx, jobID, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	job.Status = crawl.JobStatusRunning
	job.UpdatedAt = m.clock.Now()
	if err := m.store.Save(ctx, job); err != nil {
		log.Error("persist running status failed", zap.Error(err))
	}

	settings, err := m.settings.Get(ctx)
	if err != nil {
		m.recordFailure(ctx, jobID, fmt.Sprintf("load settings: %v", err))
		return
	}

	payload, err := m.gateway.Crawl(ctx, settings.CrawlBaseURL, job.Config)
	if err != nil {
		m.recordFailure(ctx, jobID, failureMessage(err))
		return
	}

	now := m.clock.Now()
	job.Status = crawl.JobStatusCompleted
	job.Result = extractResults(payload)
	job.Error = ""
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := m.store.Save(ctx, job); err != nil {
		log.Error("persist completed job failed", zap.Error(err))
		return
	}
	metrics.ObserveJob(string(crawl.JobStatusCompleted))
	log.Info("job completed")
}

// recordFailure marks the job failed with the given message, keeping the
// result/error exclusivity invariant.
func (m *Manager) recordFailure(ctx context.Context, jobID, message string) {
	job, found, err := m.store.Get(ctx, jobID)
	if err != nil || !found {
		return
	}
	job.Status = crawl.JobStatusFailed
	job.Error = message
	job.Result = nil
	job.UpdatedAt = m.clock.Now()
	if err := m.store.Save(ctx, job); err != nil {
		m.logger.Error("persist failed job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	metrics.ObserveJob(string(crawl.JobStatusFailed))
	m.logger.Warn("job failed", zap.String("job_id", jobID), zap.String("reason", message))
}

// finalize stamps updated_at one last time so the persisted record always
// carries the moment execution actually ended.
func (m *Manager) finalize(ctx context.Context, jobID string, log *zap.Logger) {
	job, found, err := m.store.Get(ctx, jobID)
	if err != nil || !found {
		return
	}
	job.UpdatedAt = m.clock.Now()
	if err := m.store.Save(ctx, job); err != nil {
		log.Error("finalize job failed", zap.Error(err))
	}
}

// failureMessage prefers the extracted gateway message over the wrapped
// error text.
func failureMessage(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return err.Error()
}

// extractResults prefers the engine's nested results field and falls back
// to the raw payload.
func extractResults(payload json.RawMessage) json.RawMessage {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if len(envelope.Results) > 0 && !bytes.Equal(envelope.Results, []byte("null")) {
			return envelope.Results
		}
	}
	return payload
}

package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
	"github.com/josiah-nelson/crawldeck/internal/metrics"
)

// InterruptedMessage is the fixed diagnostic recorded on jobs whose
// execution did not survive a process restart.
const InterruptedMessage = "Job interrupted by server restart"

// RecoverOnce reconciles jobs left non-terminal by a previous process.
// It runs at most once per process lifetime no matter how many callers
// race into it; every later call is a no-op.
//
// A job found running cannot still be executing: its goroutine died with
// the old process, so it is failed with a fixed diagnostic. A job found
// queued never got its dispatch, so it is re-executed exactly as a fresh
// submission would be.
func (m *Manager) RecoverOnce(ctx context.Context) {
	m.recoverOnce.Do(func() {
		m.recover(ctx)
	})
}

func (m *Manager) recover(ctx context.Context) {
	jobs, err := m.store.GetAll(ctx)
	if err != nil {
		m.logger.Warn("job recovery failed to read store", zap.Error(err))
		return
	}

	recovered := 0
	for _, job := range jobs {
		switch job.Status {
		case crawl.JobStatusRunning:
			job.Status = crawl.JobStatusFailed
			job.Error = InterruptedMessage
			job.Result = nil
			job.UpdatedAt = m.clock.Now()
			if err := m.store.Save(ctx, job); err != nil {
				m.logger.Error("recovery: persist interrupted job failed",
					zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			metrics.ObserveJob(string(crawl.JobStatusFailed))
			recovered++
		case crawl.JobStatusQueued:
			go m.execute(job.ID)
			recovered++
		}
	}

	if recovered > 0 {
		m.logger.Info("recovered stale jobs after restart", zap.Int("count", recovered))
	}
}

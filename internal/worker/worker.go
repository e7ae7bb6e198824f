package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joshu-sajeev/queuectl/common"
	"github.com/joshu-sajeev/queuectl/internal/backoff"
	"github.com/joshu-sajeev/queuectl/internal/config"
	"github.com/joshu-sajeev/queuectl/internal/executor"
	"github.com/joshu-sajeev/queuectl/internal/job"
	"github.com/joshu-sajeev/queuectl/internal/models"
)

const errSnippetLimit = 500

// Worker claims runnable jobs one at a time, executes them through the
// Runner, and commits the outcome. One Worker maps to one OS process; its id
// is the process pid, which the store records as the lease holder.
type Worker struct {
	id       int
	repo     job.JobRepoInterface
	runner   executor.Runner
	settings *config.Settings
	log      zerolog.Logger

	lastSweep time.Time
}

func New(id int, repo job.JobRepoInterface, runner executor.Runner, settings *config.Settings, log zerolog.Logger) *Worker {
	return &Worker{
		id:       id,
		repo:     repo,
		runner:   runner,
		settings: settings,
		log:      log.With().Int("worker", id).Logger(),
	}
}

// Run loops until ctx is cancelled. Shutdown is cooperative and
// job-completing: cancellation is only observed between iterations, so a
// claimed job is always executed and committed before Run returns.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("worker shutting down")
			return
		}

		worked, err := w.RunOnce(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("worker iteration failed")
		}
		if worked && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.settings.PollInterval):
		}
	}
}

// RunOnce performs one iteration of the loop: sweep, claim, and process.
// Returns true when a job was claimed and handled.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	now := time.Now()
	w.maybeSweep(ctx, now)

	raw, err := w.repo.AllConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.ParseValues(raw)
	if err != nil {
		return false, fmt.Errorf("load config: %w", err)
	}

	lease := time.Duration(cfg.LockLeaseSeconds) * time.Second
	j, err := w.repo.ClaimNextRunnable(ctx, w.id, now, lease)
	if err != nil {
		return false, err
	}
	if j == nil {
		return false, nil
	}

	// The commit must land even if shutdown arrives mid-execution.
	w.process(context.WithoutCancel(ctx), j, cfg)
	return true, nil
}

func (w *Worker) process(ctx context.Context, j *models.Job, cfg *config.Values) {
	w.log.Info().Str("job", j.ID).Str("command", j.Command).Msg("picked job")

	lease := time.Duration(cfg.LockLeaseSeconds) * time.Second
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		w.heartbeat(hbCtx, j.ID, lease)
	}()

	res := w.runner.Run(ctx, j.Command, time.Duration(cfg.JobTimeoutSeconds)*time.Second)
	stopHeartbeat()
	<-hbDone

	now := time.Now()
	out := models.ExecResult{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}

	if res.ExitCode == 0 && !res.TimedOut {
		if err := w.repo.MarkCompleted(ctx, j.ID, w.id, out, now); err != nil {
			w.commitError(j.ID, "complete", err)
			return
		}
		w.log.Info().Str("job", j.ID).Msg("job completed")
		return
	}

	errMsg := failureMessage(res, cfg.JobTimeoutSeconds)
	newAttempts := j.Attempts + 1

	if newAttempts <= j.MaxRetries {
		retryAt := now.Add(backoff.Delay(newAttempts, cfg.BackoffBase, cfg.MaxBackoffSeconds))
		if err := w.repo.ScheduleRetry(ctx, j.ID, w.id, newAttempts, retryAt, errMsg, out, now); err != nil {
			w.commitError(j.ID, "retry", err)
			return
		}
		w.log.Warn().
			Str("job", j.ID).
			Int("attempt", newAttempts).
			Int("max_retries", j.MaxRetries).
			Time("retry_at", retryAt).
			Msg("job failed, retry scheduled")
		return
	}

	reason := fmt.Sprintf("max retries exceeded: %s", errMsg)
	if err := w.repo.MoveToDLQ(ctx, j.ID, w.id, newAttempts, reason, out, now); err != nil {
		w.commitError(j.ID, "dlq", err)
		return
	}
	w.log.Error().Str("job", j.ID).Int("attempts", newAttempts).Msg("job moved to dlq")
}

// heartbeat extends the lease while the job executes so that jobs longer
// than lock_lease_seconds are not reclaimed and double-executed.
func (w *Worker) heartbeat(ctx context.Context, jobID string, lease time.Duration) {
	interval := lease / 2
	if interval < time.Second {
		interval = time.Second
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			err := w.repo.ExtendLease(ctx, jobID, w.id, time.Now().Add(lease))
			if err == nil {
				continue
			}
			if errors.Is(err, common.ErrLeaseLost) {
				w.log.Warn().Str("job", jobID).Msg("lease lost during execution")
			} else {
				w.log.Error().Err(err).Str("job", jobID).Msg("lease renewal failed")
			}
			return
		}
	}
}

// maybeSweep runs the reclaim and promotion housekeeping, rate-limited to
// the configured sweep interval.
func (w *Worker) maybeSweep(ctx context.Context, now time.Time) {
	if now.Sub(w.lastSweep) < w.settings.SweepInterval {
		return
	}
	w.lastSweep = now

	if n, err := w.repo.ReclaimExpiredLeases(ctx, now); err != nil {
		w.log.Error().Err(err).Msg("lease reclaim failed")
	} else if n > 0 {
		w.log.Info().Int64("count", n).Msg("reclaimed expired leases")
	}

	if n, err := w.repo.PromoteReadyRetries(ctx, now); err != nil {
		w.log.Error().Err(err).Msg("retry promotion failed")
	} else if n > 0 {
		w.log.Debug().Int64("count", n).Msg("promoted ready retries")
	}
}

// commitError handles a failed state commit. A lost lease means a sweeper
// reclaimed the job and another worker may own it; re-attempting the commit
// could double-apply a terminal state, so it is logged and dropped.
func (w *Worker) commitError(jobID, op string, err error) {
	if errors.Is(err, common.ErrLeaseLost) {
		w.log.Warn().Str("job", jobID).Str("op", op).Msg("lease lost, dropping commit")
		return
	}
	w.log.Error().Err(err).Str("job", jobID).Str("op", op).Msg("commit failed")
}

func failureMessage(res executor.Result, timeoutSeconds int) string {
	if res.TimedOut {
		return fmt.Sprintf("timed out after %ds", timeoutSeconds)
	}
	return fmt.Sprintf("exit code %d: %s", res.ExitCode, truncate(res.Stderr, errSnippetLimit))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joshu-sajeev/queuectl/common"
	"github.com/joshu-sajeev/queuectl/internal/config"
	"github.com/joshu-sajeev/queuectl/internal/job"
	"github.com/joshu-sajeev/queuectl/internal/models"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// claimOrder ranks runnable jobs: priority-class (priority > 0) before
// FIFO-class, then higher priority first, then oldest first.
const claimOrder = "CASE WHEN priority > 0 THEN 0 ELSE 1 END, priority DESC, created_at ASC"

// SQLite compares stored timestamps lexically, so every time value is
// normalized to UTC before it goes into a query or a row.
func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Enqueue inserts a new job. Returns common.ErrDuplicateID if a job with the
// same id already exists; the existing row is left untouched.
func (r *JobRepository) Enqueue(ctx context.Context, j *models.Job) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	j.RunAt = utcPtr(j.RunAt)
	j.RetryAt = utcPtr(j.RetryAt)

	if err := r.db.WithContext(ctx).Create(j).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrDuplicateID
		}
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Get retrieves a single job by id. Returns common.ErrNotFound if it does
// not exist.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// List enumerates jobs, newest first, optionally filtered by state.
func (r *JobRepository) List(ctx context.Context, state string, limit int) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if state != "" {
		q = q.Where("state = ?", state)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Counts returns the number of jobs per state.
func (r *JobRepository) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// ClaimNextRunnable atomically picks the highest-ranked runnable job, stamps
// a lease for workerID, and moves it to processing. Returns (nil, nil) when
// nothing is runnable.
//
// The whole select-then-update runs in one transaction that holds the SQLite
// write lock from BEGIN (see Open), so a concurrent claimer cannot observe
// the same row as unclaimed.
func (r *JobRepository) ClaimNextRunnable(ctx context.Context, workerID int, now time.Time, lease time.Duration) (*models.Job, error) {
	now = utc(now)
	var claimed *models.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var j models.Job
		err := tx.
			Where("state = ?", config.StatePending).
			Where("retry_at IS NULL OR retry_at <= ?", now).
			Where("run_at IS NULL OR run_at <= ?", now).
			Where("locked_until IS NULL OR locked_until < ?", now).
			Order(claimOrder).
			First(&j).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		until := now.Add(lease)
		if err := tx.Model(&models.Job{}).
			Where("id = ?", j.ID).
			Updates(map[string]any{
				"state":        config.StateProcessing,
				"locked_by":    workerID,
				"locked_until": until,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		j.State = config.StateProcessing
		j.LockedBy = &workerID
		j.LockedUntil = &until
		j.UpdatedAt = now
		claimed = &j
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim next runnable: %w", err)
	}
	return claimed, nil
}

// ExtendLease pushes the lease expiry forward for a job still held by
// workerID. Returns common.ErrLeaseLost if the lease is no longer held.
func (r *JobRepository) ExtendLease(ctx context.Context, id string, workerID int, until time.Time) error {
	until = utc(until)
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND locked_by = ? AND state = ?", id, workerID, config.StateProcessing).
		Updates(map[string]any{
			"locked_until": until,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("extend lease: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrLeaseLost
	}
	return nil
}

// MarkCompleted transitions a job held by workerID to completed, clears the
// lease, and stores the captured output. Returns common.ErrLeaseLost if the
// lease is no longer held.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, workerID int, res models.ExecResult, now time.Time) error {
	now = utc(now)
	tx := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND locked_by = ? AND state = ?", id, workerID, config.StateProcessing).
		Updates(map[string]any{
			"state":        config.StateCompleted,
			"locked_by":    nil,
			"locked_until": nil,
			"retry_at":     nil,
			"stdout_log":   res.Stdout,
			"stderr_log":   res.Stderr,
			"exit_code":    res.ExitCode,
			"completed_at": now,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return fmt.Errorf("mark completed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return common.ErrLeaseLost
	}
	return nil
}

// ScheduleRetry returns a failed job to pending with retry_at set, records
// the attempt count and error, and clears the lease. Returns
// common.ErrLeaseLost if the lease is no longer held.
func (r *JobRepository) ScheduleRetry(ctx context.Context, id string, workerID int, newAttempts int, retryAt time.Time, errMsg string, res models.ExecResult, now time.Time) error {
	now, retryAt = utc(now), utc(retryAt)
	tx := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND locked_by = ? AND state = ?", id, workerID, config.StateProcessing).
		Updates(map[string]any{
			"state":        config.StatePending,
			"attempts":     newAttempts,
			"retry_at":     retryAt,
			"last_error":   errMsg,
			"locked_by":    nil,
			"locked_until": nil,
			"stdout_log":   res.Stdout,
			"stderr_log":   res.Stderr,
			"exit_code":    res.ExitCode,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return fmt.Errorf("schedule retry: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return common.ErrLeaseLost
	}
	return nil
}

// MoveToDLQ transitions a job held by workerID to dead and inserts the DLQ
// record with a JSON snapshot of the job row. Returns common.ErrLeaseLost if
// the lease is no longer held.
func (r *JobRepository) MoveToDLQ(ctx context.Context, id string, workerID int, newAttempts int, reason string, res models.ExecResult, now time.Time) error {
	now = utc(now)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&models.Job{}).
			Where("id = ? AND locked_by = ? AND state = ?", id, workerID, config.StateProcessing).
			Updates(map[string]any{
				"state":        config.StateDead,
				"attempts":     newAttempts,
				"last_error":   reason,
				"locked_by":    nil,
				"locked_until": nil,
				"retry_at":     nil,
				"stdout_log":   res.Stdout,
				"stderr_log":   res.Stderr,
				"exit_code":    res.ExitCode,
				"updated_at":   now,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return common.ErrLeaseLost
		}

		var j models.Job
		if err := tx.First(&j, "id = ?", id).Error; err != nil {
			return err
		}
		snapshot, err := json.Marshal(j)
		if err != nil {
			return err
		}

		return tx.Create(&models.DLQEntry{
			ID:      uuid.NewString(),
			JobID:   id,
			Reason:  reason,
			MovedAt: now,
			Payload: datatypes.JSON(snapshot),
		}).Error
	})
	if err != nil {
		if errors.Is(err, common.ErrLeaseLost) {
			return common.ErrLeaseLost
		}
		return fmt.Errorf("move to dlq: %w", err)
	}
	return nil
}

// ReclaimExpiredLeases returns every processing job whose lease has expired
// to pending. Attempts are not touched; the work simply did not complete.
func (r *JobRepository) ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	now = utc(now)
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("state = ? AND locked_until IS NOT NULL AND locked_until < ?", config.StateProcessing, now).
		Updates(map[string]any{
			"state":        config.StatePending,
			"locked_by":    nil,
			"locked_until": nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reclaim expired leases: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PromoteReadyRetries clears retry_at on pending jobs whose backoff has
// elapsed. The claim predicate already ignores elapsed retry_at values, so
// this only bumps rows for observability.
func (r *JobRepository) PromoteReadyRetries(ctx context.Context, now time.Time) (int64, error) {
	now = utc(now)
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("state = ? AND retry_at IS NOT NULL AND retry_at <= ?", config.StatePending, now).
		Updates(map[string]any{
			"retry_at":   nil,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("promote ready retries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListDLQ enumerates DLQ entries, most recently moved first.
func (r *JobRepository) ListDLQ(ctx context.Context, limit int) ([]models.DLQEntry, error) {
	var entries []models.DLQEntry
	if err := r.db.WithContext(ctx).
		Order("moved_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list dlq: %w", err)
	}
	return entries, nil
}

// GetDLQ retrieves the DLQ entry for a job id. Returns common.ErrNotFound if
// the job has no DLQ entry.
func (r *JobRepository) GetDLQ(ctx context.Context, jobID string) (*models.DLQEntry, error) {
	var e models.DLQEntry
	if err := r.db.WithContext(ctx).First(&e, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get dlq entry: %w", err)
	}
	return &e, nil
}

// RetryFromDLQ resurrects a dead job: state back to pending, attempts reset
// to zero, lease and error cleared, DLQ entry removed. Returns
// common.ErrNotFound if the job has no DLQ entry.
func (r *JobRepository) RetryFromDLQ(ctx context.Context, jobID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e models.DLQEntry
		if err := tx.First(&e, "job_id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			return err
		}

		if err := tx.Model(&models.Job{}).
			Where("id = ?", jobID).
			Updates(map[string]any{
				"state":        config.StatePending,
				"attempts":     0,
				"locked_by":    nil,
				"locked_until": nil,
				"retry_at":     nil,
				"last_error":   nil,
				"updated_at":   time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.DLQEntry{}, "job_id = ?", jobID).Error
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("retry from dlq: %w", err)
	}
	return nil
}

// GetConfig reads one config value, falling back to the compiled-in default
// for recognized keys. Returns common.ErrNotFound for unknown keys.
func (r *JobRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var e models.ConfigEntry
	err := r.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if err == nil {
		return e.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("get config: %w", err)
	}
	if def, ok := config.Defaults[key]; ok {
		return def, nil
	}
	return "", common.ErrNotFound
}

// SetConfig upserts one config value.
func (r *JobRepository) SetConfig(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.ConfigEntry{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	return nil
}

// AllConfig returns the stored config merged over the defaults.
func (r *JobRepository) AllConfig(ctx context.Context) (map[string]string, error) {
	var entries []models.ConfigEntry
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	merged := make(map[string]string, len(config.Defaults))
	for k, v := range config.Defaults {
		merged[k] = v
	}
	for _, e := range entries {
		merged[e.Key] = e.Value
	}
	return merged, nil
}

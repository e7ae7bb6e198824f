package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/joshu-sajeev/queuectl/internal/models"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Enqueue(ctx context.Context, j *models.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)

	j, _ := args.Get(0).(*models.Job)
	return j, args.Error(1)
}

func (m *JobRepoMock) List(ctx context.Context, state string, limit int) ([]models.Job, error) {
	args := m.Called(ctx, state, limit)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) Counts(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)

	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *JobRepoMock) ClaimNextRunnable(ctx context.Context, workerID int, now time.Time, lease time.Duration) (*models.Job, error) {
	args := m.Called(ctx, workerID, now, lease)

	j, _ := args.Get(0).(*models.Job)
	return j, args.Error(1)
}

func (m *JobRepoMock) ExtendLease(ctx context.Context, id string, workerID int, until time.Time) error {
	args := m.Called(ctx, id, workerID, until)
	return args.Error(0)
}

func (m *JobRepoMock) MarkCompleted(ctx context.Context, id string, workerID int, res models.ExecResult, now time.Time) error {
	args := m.Called(ctx, id, workerID, res, now)
	return args.Error(0)
}

func (m *JobRepoMock) ScheduleRetry(ctx context.Context, id string, workerID int, newAttempts int, retryAt time.Time, errMsg string, res models.ExecResult, now time.Time) error {
	args := m.Called(ctx, id, workerID, newAttempts, retryAt, errMsg, res, now)
	return args.Error(0)
}

func (m *JobRepoMock) MoveToDLQ(ctx context.Context, id string, workerID int, newAttempts int, reason string, res models.ExecResult, now time.Time) error {
	args := m.Called(ctx, id, workerID, newAttempts, reason, res, now)
	return args.Error(0)
}

func (m *JobRepoMock) ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobRepoMock) PromoteReadyRetries(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JobRepoMock) ListDLQ(ctx context.Context, limit int) ([]models.DLQEntry, error) {
	args := m.Called(ctx, limit)

	entries, _ := args.Get(0).([]models.DLQEntry)
	return entries, args.Error(1)
}

func (m *JobRepoMock) GetDLQ(ctx context.Context, jobID string) (*models.DLQEntry, error) {
	args := m.Called(ctx, jobID)

	e, _ := args.Get(0).(*models.DLQEntry)
	return e, args.Error(1)
}

func (m *JobRepoMock) RetryFromDLQ(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *JobRepoMock) GetConfig(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *JobRepoMock) SetConfig(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *JobRepoMock) AllConfig(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)

	cfg, _ := args.Get(0).(map[string]string)
	return cfg, args.Error(1)
}

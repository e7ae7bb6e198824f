package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshu-sajeev/queuectl/internal/dto"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) EnqueueJob(ctx context.Context, req *dto.EnqueueRequest) (*dto.JobResponse, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.JobResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJob(ctx context.Context, id string) (*dto.JobResponse, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) ListJobs(ctx context.Context, state string, limit int) ([]dto.JobResponse, error) {
	args := m.Called(ctx, state, limit)

	resp, _ := args.Get(0).([]dto.JobResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) QueueStatus(ctx context.Context) (*dto.StatusResponse, error) {
	args := m.Called(ctx)

	resp, _ := args.Get(0).(*dto.StatusResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetOutput(ctx context.Context, id string) (*dto.OutputResponse, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.OutputResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) ListDLQ(ctx context.Context, limit int) ([]dto.DLQResponse, error) {
	args := m.Called(ctx, limit)

	resp, _ := args.Get(0).([]dto.DLQResponse)
	return resp, args.Error(1)
}

func (m *JobServiceMock) RetryFromDLQ(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *JobServiceMock) GetConfig(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *JobServiceMock) SetConfig(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

package job

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joshu-sajeev/queuectl/common"
	"github.com/joshu-sajeev/queuectl/internal/config"
	"github.com/joshu-sajeev/queuectl/internal/dto"
	"github.com/joshu-sajeev/queuectl/internal/models"
	"github.com/joshu-sajeev/queuectl/internal/supervisor"
)

const defaultListLimit = 100

type JobService struct {
	repo    JobRepoInterface
	pidFile string
}

func NewJobService(repo JobRepoInterface, pidFile string) *JobService {
	return &JobService{repo: repo, pidFile: pidFile}
}

var _ JobServiceInterface = (*JobService)(nil)

// EnqueueJob validates enqueue input, applies config defaults, constructs a
// pending Job, and persists it. It returns a typed API error for validation
// failures and duplicate ids.
func (s *JobService) EnqueueJob(ctx context.Context, req *dto.EnqueueRequest) (*dto.JobResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if req.Command == "" {
		return nil, common.Errf(http.StatusBadRequest, "'command' field is required")
	}
	if req.Priority < config.MinPriority || req.Priority > config.MaxPriority {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid priority",
			map[string]any{
				"provided": req.Priority,
				"min":      config.MinPriority,
				"max":      config.MaxPriority,
			},
		)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	maxRetries, err := s.defaultMaxRetries(ctx, req.MaxRetries)
	if err != nil {
		return nil, err
	}

	j := models.Job{
		ID:         id,
		Command:    req.Command,
		State:      config.StatePending,
		Priority:   req.Priority,
		MaxRetries: maxRetries,
		RunAt:      req.RunAt,
	}

	if err := s.repo.Enqueue(ctx, &j); err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateID):
			return nil, common.Errf(http.StatusConflict, "job %q already exists", id)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, common.Errf(http.StatusRequestTimeout, "request was canceled")
		default:
			return nil, common.Errf(http.StatusInternalServerError, "failed to enqueue job")
		}
	}

	resp := toJobResponse(&j)
	return &resp, nil
}

func (s *JobService) defaultMaxRetries(ctx context.Context, requested *int) (int, error) {
	if requested != nil {
		if *requested < 0 {
			return 0, common.Errf(http.StatusBadRequest, "max_retries must be >= 0")
		}
		return *requested, nil
	}

	raw, err := s.repo.GetConfig(ctx, config.KeyMaxRetries)
	if err != nil {
		return 0, common.Errf(http.StatusInternalServerError, "failed to read config")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.Errf(http.StatusInternalServerError, "config %s holds invalid value %q", config.KeyMaxRetries, raw)
	}
	return n, nil
}

// GetJob retrieves a job by id.
func (s *JobService) GetJob(ctx context.Context, id string) (*dto.JobResponse, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job %q not found", id)
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to fetch job")
	}
	resp := toJobResponse(j)
	return &resp, nil
}

// ListJobs enumerates jobs with an optional state filter and a bounded limit.
func (s *JobService) ListJobs(ctx context.Context, state string, limit int) ([]dto.JobResponse, error) {
	if state != "" && !slices.Contains(config.AllStates, state) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid state",
			map[string]any{
				"provided": state,
				"allowed":  config.AllStates,
			},
		)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	jobs, err := s.repo.List(ctx, state, limit)
	if err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "failed to list jobs")
	}

	out := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	return out, nil
}

// QueueStatus runs the housekeeping sweep, then reports per-state counts and
// the worker PIDs that are still alive.
func (s *JobService) QueueStatus(ctx context.Context) (*dto.StatusResponse, error) {
	now := time.Now()
	if _, err := s.repo.ReclaimExpiredLeases(ctx, now); err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "lease sweep failed")
	}
	if _, err := s.repo.PromoteReadyRetries(ctx, now); err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "retry sweep failed")
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "failed to count jobs")
	}

	workers, err := supervisor.Active(s.pidFile)
	if err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "failed to read worker pids")
	}

	return &dto.StatusResponse{Counts: counts, Workers: workers}, nil
}

// GetOutput returns the captured stdout/stderr and exit code of a job's most
// recent execution.
func (s *JobService) GetOutput(ctx context.Context, id string) (*dto.OutputResponse, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job %q not found", id)
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to fetch job")
	}

	return &dto.OutputResponse{
		JobID:       j.ID,
		Stdout:      j.StdoutLog,
		Stderr:      j.StderrLog,
		ExitCode:    j.ExitCode,
		CompletedAt: j.CompletedAt,
	}, nil
}

// ListDLQ enumerates dead-letter entries.
func (s *JobService) ListDLQ(ctx context.Context, limit int) ([]dto.DLQResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, err := s.repo.ListDLQ(ctx, limit)
	if err != nil {
		return nil, common.Errf(http.StatusInternalServerError, "failed to list dlq")
	}

	out := make([]dto.DLQResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.DLQResponse{JobID: e.JobID, Reason: e.Reason, MovedAt: e.MovedAt})
	}
	return out, nil
}

// RetryFromDLQ resurrects a dead job back to pending with attempts reset.
func (s *JobService) RetryFromDLQ(ctx context.Context, jobID string) error {
	if err := s.repo.RetryFromDLQ(ctx, jobID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.Errf(http.StatusNotFound, "job %q not found in dlq", jobID)
		}
		return common.Errf(http.StatusInternalServerError, "failed to retry job from dlq")
	}
	return nil
}

// GetConfig reads one config value (stored or default).
func (s *JobService) GetConfig(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetConfig(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.Errf(http.StatusNotFound, "unknown config key %q", key)
		}
		return "", common.Errf(http.StatusInternalServerError, "failed to read config")
	}
	return value, nil
}

// SetConfig validates and writes one config value.
func (s *JobService) SetConfig(ctx context.Context, key, value string) error {
	if err := config.ValidateSetting(key, value); err != nil {
		return common.Errf(http.StatusBadRequest, "%v", err)
	}
	if err := s.repo.SetConfig(ctx, key, value); err != nil {
		return common.Errf(http.StatusInternalServerError, "failed to write config")
	}
	return nil
}

func toJobResponse(j *models.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:          j.ID,
		Command:     j.Command,
		State:       j.State,
		Priority:    j.Priority,
		Attempts:    j.Attempts,
		MaxRetries:  j.MaxRetries,
		LockedBy:    j.LockedBy,
		LockedUntil: j.LockedUntil,
		RetryAt:     j.RetryAt,
		RunAt:       j.RunAt,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

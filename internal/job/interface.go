package job

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/queuectl/internal/dto"
	"github.com/joshu-sajeev/queuectl/internal/models"
)

// JobRepoInterface defines the contract for the durable job store.
type JobRepoInterface interface {
	Enqueue(ctx context.Context, j *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, state string, limit int) ([]models.Job, error)
	Counts(ctx context.Context) (map[string]int64, error)

	ClaimNextRunnable(ctx context.Context, workerID int, now time.Time, lease time.Duration) (*models.Job, error)
	ExtendLease(ctx context.Context, id string, workerID int, until time.Time) error
	MarkCompleted(ctx context.Context, id string, workerID int, res models.ExecResult, now time.Time) error
	ScheduleRetry(ctx context.Context, id string, workerID int, newAttempts int, retryAt time.Time, errMsg string, res models.ExecResult, now time.Time) error
	MoveToDLQ(ctx context.Context, id string, workerID int, newAttempts int, reason string, res models.ExecResult, now time.Time) error
	ReclaimExpiredLeases(ctx context.Context, now time.Time) (int64, error)
	PromoteReadyRetries(ctx context.Context, now time.Time) (int64, error)

	ListDLQ(ctx context.Context, limit int) ([]models.DLQEntry, error)
	GetDLQ(ctx context.Context, jobID string) (*models.DLQEntry, error)
	RetryFromDLQ(ctx context.Context, jobID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	AllConfig(ctx context.Context) (map[string]string, error)
}

// JobServiceInterface defines the business logic surface shared by the CLI
// and the HTTP API.
type JobServiceInterface interface {
	EnqueueJob(ctx context.Context, req *dto.EnqueueRequest) (*dto.JobResponse, error)
	GetJob(ctx context.Context, id string) (*dto.JobResponse, error)
	ListJobs(ctx context.Context, state string, limit int) ([]dto.JobResponse, error)
	QueueStatus(ctx context.Context) (*dto.StatusResponse, error)
	GetOutput(ctx context.Context, id string) (*dto.OutputResponse, error)
	ListDLQ(ctx context.Context, limit int) ([]dto.DLQResponse, error)
	RetryFromDLQ(ctx context.Context, jobID string) error
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// JobHandlerInterface defines the HTTP handlers of the admin API.
type JobHandlerInterface interface {
	Enqueue(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Status(c *gin.Context)
	Output(c *gin.Context)
	ListDLQ(c *gin.Context)
	RetryDLQ(c *gin.Context)
	GetConfig(c *gin.Context)
	SetConfig(c *gin.Context)
}

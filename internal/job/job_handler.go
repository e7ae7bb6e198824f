package job

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joshu-sajeev/queuectl/common"
	"github.com/joshu-sajeev/queuectl/internal/dto"
	"github.com/joshu-sajeev/queuectl/middleware"
)

// JobHandler exposes the queue over the admin HTTP API. It is a thin layer:
// validation and business rules live in the JobService.
type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// RegisterRoutes mounts the admin API on the router group.
func (h *JobHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/jobs", h.Enqueue)
	r.GET("/jobs", h.List)
	r.GET("/jobs/:id", h.Get)
	r.GET("/jobs/:id/output", h.Output)
	r.GET("/status", h.Status)
	r.GET("/dlq", h.ListDLQ)
	r.POST("/dlq/:job_id/retry", h.RetryDLQ)
	r.GET("/config/:key", h.GetConfig)
	r.PUT("/config/:key", h.SetConfig)
}

// Enqueue handles POST /jobs: binds and validates the request body,
// delegates to the service, and returns 201 with the created job.
func (h *JobHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueRequest
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.EnqueueJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	resp, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List handles GET /jobs with optional state and limit query parameters.
func (h *JobHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid limit"))
		c.Abort()
		return
	}

	resp, err := h.service.ListJobs(c.Request.Context(), c.Query("state"), limit)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Status handles GET /status.
func (h *JobHandler) Status(c *gin.Context) {
	resp, err := h.service.QueueStatus(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Output handles GET /jobs/:id/output.
func (h *JobHandler) Output(c *gin.Context) {
	resp, err := h.service.GetOutput(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDLQ handles GET /dlq.
func (h *JobHandler) ListDLQ(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid limit"))
		c.Abort()
		return
	}

	resp, err := h.service.ListDLQ(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RetryDLQ handles POST /dlq/:job_id/retry.
func (h *JobHandler) RetryDLQ(c *gin.Context) {
	jobID := c.Param("job_id")
	if err := h.service.RetryFromDLQ(c.Request.Context(), jobID); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "state": "pending"})
}

// GetConfig handles GET /config/:key.
func (h *JobHandler) GetConfig(c *gin.Context) {
	key := c.Param("key")
	value, err := h.service.GetConfig(c.Request.Context(), key)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// SetConfig handles PUT /config/:key with body {"value": "..."}.
func (h *JobHandler) SetConfig(c *gin.Context) {
	var body struct {
		Value string `json:"value" validate:"required"`
	}
	if !middleware.Bind(c, &body) {
		c.Abort()
		return
	}

	key := c.Param("key")
	if err := h.service.SetConfig(c.Request.Context(), key, body.Value); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}

package apiv1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

type JobsGroup struct {
	routerGroup *echo.Group
	backend     repository.BackendRepository
	syncer      *syncer.Service
}

type CreateJobRequest struct {
	AccountId string `json:"account_id"`
	Schedule  string `json:"schedule"`
}

func NewJobsGroup(g *echo.Group, backend repository.BackendRepository, svc *syncer.Service) *JobsGroup {
	group := &JobsGroup{routerGroup: g, backend: backend, syncer: svc}
	group.registerRoutes()
	return group
}

func (g *JobsGroup) registerRoutes() {
	g.routerGroup.Use(auth.RequireAuthMiddleware())
	g.routerGroup.GET("", g.ListJobs)
	g.routerGroup.POST("", g.CreateJob)
	g.routerGroup.GET("/:id", g.GetJob)
	g.routerGroup.POST("/:id/retry", g.RetryJob)
	g.routerGroup.POST("/:id/cancel", g.CancelJob)
}

func (g *JobsGroup) ListJobs(c echo.Context) error {
	ctx := c.Request().Context()

	filter := types.JobFilter{
		Type:      types.JobType(c.QueryParam("type")),
		Status:    types.JobStatus(c.QueryParam("status")),
		AccountId: c.QueryParam("account_id"),
	}
	if !auth.IsClusterAdmin(ctx) {
		filter.UserId = auth.UserId(ctx)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return ErrorResponse(c, http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = limit
	}

	jobs, err := g.backend.ListJobs(ctx, filter)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, jobs)
}

func (g *JobsGroup) CreateJob(c echo.Context) error {
	var req CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AccountId == "" {
		return ErrorResponse(c, http.StatusBadRequest, "account_id is required")
	}

	if _, err := accessibleAccount(c, g.backend, req.AccountId); err != nil {
		return HandleError(c, err)
	}

	job, err := g.syncer.EnqueueJob(c.Request().Context(), req.AccountId, req.Schedule)
	if err != nil {
		return HandleError(c, err)
	}
	return CreatedResponse(c, job)
}

// accessibleJob loads a job and checks the caller owns its account.
// Jobs without an account are visible to cluster admins only.
func (g *JobsGroup) accessibleJob(c echo.Context) (*types.SyncJob, error) {
	ctx := c.Request().Context()

	job, err := g.backend.GetJob(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}

	if job.AccountId == nil {
		if err := auth.RequireClusterAdmin(ctx); err != nil {
			return nil, auth.ErrForbidden
		}
		return job, nil
	}

	if _, err := accessibleAccount(c, g.backend, *job.AccountId); err != nil {
		return nil, err
	}
	return job, nil
}

func (g *JobsGroup) GetJob(c echo.Context) error {
	job, err := g.accessibleJob(c)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, job)
}

// RetryJob enqueues a new pending job from a failed or cancelled one
func (g *JobsGroup) RetryJob(c echo.Context) error {
	job, err := g.accessibleJob(c)
	if err != nil {
		return HandleError(c, err)
	}

	retry, err := g.syncer.RetryJob(c.Request().Context(), job.Id)
	if err != nil {
		return HandleError(c, err)
	}
	return CreatedResponse(c, retry)
}

func (g *JobsGroup) CancelJob(c echo.Context) error {
	job, err := g.accessibleJob(c)
	if err != nil {
		return HandleError(c, err)
	}

	cancelled, err := g.syncer.CancelJob(c.Request().Context(), job.Id)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, cancelled)
}

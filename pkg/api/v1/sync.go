package apiv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

type SyncGroup struct {
	routerGroup *echo.Group
	backend     repository.BackendRepository
	syncer      *syncer.Service
}

type SyncRequest struct {
	AccountId string `json:"account_id"`
}

type SweepRequest struct {
	ManualTrigger bool `json:"manual_trigger"`
}

func NewSyncGroup(g *echo.Group, backend repository.BackendRepository, svc *syncer.Service) *SyncGroup {
	group := &SyncGroup{routerGroup: g, backend: backend, syncer: svc}
	group.registerRoutes()
	return group
}

func (g *SyncGroup) registerRoutes() {
	g.routerGroup.POST("/folders", g.SyncFolders)
	g.routerGroup.POST("/messages", g.SyncMessages)
	g.routerGroup.POST("/account", g.SyncAccount)
	g.routerGroup.POST("/sweep", g.Sweep)
}

func (g *SyncGroup) SyncFolders(c echo.Context) error {
	return g.syncOne(c, g.syncer.SyncFolders, "folders")
}

func (g *SyncGroup) SyncMessages(c echo.Context) error {
	return g.syncOne(c, g.syncer.SyncMessages, "emails")
}

func (g *SyncGroup) SyncAccount(c echo.Context) error {
	return g.syncOne(c, g.syncer.SyncAccount, "emails")
}

type syncFunc func(ctx context.Context, accountId string) (*types.SyncResult, error)

func (g *SyncGroup) syncOne(c echo.Context, run syncFunc, noun string) error {
	if err := auth.RequireAuth(c.Request().Context()); err != nil {
		return HandleError(c, err)
	}

	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AccountId == "" {
		return ErrorResponse(c, http.StatusBadRequest, "account_id is required")
	}

	if _, err := accessibleAccount(c, g.backend, req.AccountId); err != nil {
		return HandleError(c, err)
	}

	result, err := run(c.Request().Context(), req.AccountId)
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(http.StatusOK, SyncResponse{
		Success: true,
		Message: countMessage(result.Count, noun),
		Count:   result.Count,
	})
}

func countMessage(count int, noun string) string {
	if count == 0 {
		return fmt.Sprintf("No new %s found", noun)
	}
	return fmt.Sprintf("Synced %d %s", count, noun)
}

// Sweep runs due jobs. Cluster admins sweep everything; users sweep their own accounts.
func (g *SyncGroup) Sweep(c echo.Context) error {
	ctx := c.Request().Context()
	if err := auth.RequireAuth(ctx); err != nil {
		return HandleError(c, err)
	}

	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	results, err := g.syncer.Sweep(ctx, syncer.SweepRequest{
		Manual: req.ManualTrigger,
		Scope:  auth.SweepScope(ctx),
	})
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(http.StatusOK, SweepResponse{
		Success: true,
		Message: fmt.Sprintf("Processed %d sync jobs", len(results)),
		Results: results,
	})
}

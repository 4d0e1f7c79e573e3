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

type MessagesGroup struct {
	routerGroup *echo.Group
	backend     repository.BackendRepository
	syncer      *syncer.Service
}

type UpdateMessageRequest struct {
	Status types.MessageStatus `json:"status"`
}

func NewMessagesGroup(g *echo.Group, backend repository.BackendRepository, svc *syncer.Service) *MessagesGroup {
	group := &MessagesGroup{routerGroup: g, backend: backend, syncer: svc}
	group.registerRoutes()
	return group
}

func (g *MessagesGroup) registerRoutes() {
	g.routerGroup.Use(auth.RequireAuthMiddleware())
	g.routerGroup.GET("/:id", g.GetMessage)
	g.routerGroup.PATCH("/:id", g.UpdateMessage)
	g.routerGroup.POST("/:id/archive", g.mutation(g.syncer.ArchiveMessage))
	g.routerGroup.POST("/:id/trash", g.mutation(g.syncer.TrashMessage))
	g.routerGroup.POST("/:id/restore", g.mutation(g.syncer.RestoreMessage))
}

// accessibleMessage loads a message and checks the caller owns its account
func (g *MessagesGroup) accessibleMessage(c echo.Context) (*types.Message, error) {
	msg, err := g.backend.GetMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if _, err := accessibleAccount(c, g.backend, msg.AccountId); err != nil {
		return nil, err
	}
	return msg, nil
}

func (g *MessagesGroup) GetMessage(c echo.Context) error {
	msg, err := g.accessibleMessage(c)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, msg)
}

func (g *MessagesGroup) UpdateMessage(c echo.Context) error {
	var req UpdateMessageRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if !req.Status.Valid() {
		return ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
	}

	msg, err := g.accessibleMessage(c)
	if err != nil {
		return HandleError(c, err)
	}

	updated, err := g.syncer.UpdateMessageStatus(c.Request().Context(), msg.Id, req.Status)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, updated)
}

type messageMutation func(ctx context.Context, messageId string) (*types.Message, error)

func (g *MessagesGroup) mutation(mutate messageMutation) echo.HandlerFunc {
	return func(c echo.Context) error {
		msg, err := g.accessibleMessage(c)
		if err != nil {
			return HandleError(c, err)
		}

		updated, err := mutate(c.Request().Context(), msg.Id)
		if err != nil {
			return HandleError(c, err)
		}
		return SuccessResponse(c, updated)
	}
}

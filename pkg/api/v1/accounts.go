package apiv1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/cache"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

type AccountsGroup struct {
	routerGroup *echo.Group
	backend     repository.BackendRepository
	syncer      *syncer.Service
	cache       cache.ReadCache
}

type CreateAccountRequest struct {
	UserId       string         `json:"user_id"` // cluster admin only; users always create their own
	Provider     string         `json:"provider"`
	Email        string         `json:"email"`
	AuthType     types.AuthType `json:"auth_type"`
	IMAPHost     string         `json:"imap_host"`
	IMAPPort     int            `json:"imap_port"`
	IMAPUsername string         `json:"imap_username"`
	IMAPPassword string         `json:"imap_password"`
	SMTPHost     string         `json:"smtp_host"`
	SMTPPort     int            `json:"smtp_port"`
	SMTPUsername string         `json:"smtp_username"`
	SMTPPassword string         `json:"smtp_password"`
	SyncInterval int            `json:"sync_interval"`
	Validate     bool           `json:"validate"`
}

func (r *CreateAccountRequest) account() *types.Account {
	return &types.Account{
		UserId:       r.UserId,
		Provider:     r.Provider,
		Email:        strings.TrimSpace(r.Email),
		AuthType:     r.AuthType,
		IMAPHost:     r.IMAPHost,
		IMAPPort:     r.IMAPPort,
		IMAPUsername: r.IMAPUsername,
		IMAPSecret:   r.IMAPPassword,
		SMTPHost:     r.SMTPHost,
		SMTPPort:     r.SMTPPort,
		SMTPUsername: r.SMTPUsername,
		SMTPSecret:   r.SMTPPassword,
		SyncInterval: r.SyncInterval,
	}
}

func NewAccountsGroup(g *echo.Group, backend repository.BackendRepository, svc *syncer.Service, rc cache.ReadCache) *AccountsGroup {
	group := &AccountsGroup{routerGroup: g, backend: backend, syncer: svc, cache: rc}
	group.registerRoutes()
	return group
}

func (g *AccountsGroup) registerRoutes() {
	g.routerGroup.GET("", g.ListAccounts, auth.RequireAuthMiddleware())
	g.routerGroup.POST("", g.CreateAccount, auth.RequireAuthMiddleware())
	g.routerGroup.POST("/validate", g.ValidateAccount, auth.RequireAuthMiddleware())

	scoped := g.routerGroup.Group("/:account_id", NewAccountAccessMiddleware(g.backend))
	scoped.GET("", g.GetAccount)
	scoped.DELETE("", g.DeleteAccount, auth.RequireClusterAdminMiddleware())
	scoped.GET("/folders", g.ListFolders)
	scoped.GET("/messages", g.ListMessages)
}

func (g *AccountsGroup) ListAccounts(c echo.Context) error {
	ctx := c.Request().Context()

	userId := auth.UserId(ctx)
	if auth.IsClusterAdmin(ctx) {
		userId = c.QueryParam("user_id")
	}

	accounts, err := g.backend.ListAccounts(ctx, userId)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, accounts)
}

func (g *AccountsGroup) bindAccount(c echo.Context) (*CreateAccountRequest, error) {
	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !req.AuthType.Valid() {
		return nil, fmt.Errorf("invalid auth_type %q", req.AuthType)
	}

	ctx := c.Request().Context()
	if !auth.IsClusterAdmin(ctx) || req.UserId == "" {
		req.UserId = auth.UserId(ctx)
	}
	if req.UserId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return &req, nil
}

func (g *AccountsGroup) CreateAccount(c echo.Context) error {
	req, err := g.bindAccount(c)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	account := req.account()

	if req.Validate {
		if err := g.syncer.ValidateAccount(ctx, account); err != nil {
			return ErrorResponse(c, validationStatus(err), err.Error())
		}
	}

	if err := g.backend.CreateAccount(ctx, account); err != nil {
		return HandleError(c, err)
	}

	log.Info().Str("account_id", account.Id).Str("user_id", account.UserId).Msg("account created")
	return CreatedResponse(c, account)
}

// ValidateAccount checks IMAP credentials without storing anything
func (g *AccountsGroup) ValidateAccount(c echo.Context) error {
	req, err := g.bindAccount(c)
	if err != nil {
		return ErrorResponse(c, http.StatusBadRequest, err.Error())
	}

	if err := g.syncer.ValidateAccount(c.Request().Context(), req.account()); err != nil {
		return ErrorResponse(c, validationStatus(err), err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Connection successful",
	})
}

func (g *AccountsGroup) GetAccount(c echo.Context) error {
	return SuccessResponse(c, accountFromContext(c))
}

func (g *AccountsGroup) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	account := accountFromContext(c)

	if err := g.backend.DeleteAccount(ctx, account.Id); err != nil {
		return HandleError(c, err)
	}
	if err := g.cache.InvalidateAccount(ctx, account.Id); err != nil {
		log.Warn().Err(err).Str("account_id", account.Id).Msg("failed to invalidate cache")
	}
	return c.NoContent(http.StatusNoContent)
}

func (g *AccountsGroup) ListFolders(c echo.Context) error {
	account := accountFromContext(c)
	return g.cached(c, account.Id, "folders", func() (interface{}, error) {
		return g.backend.ListFolders(c.Request().Context(), account.Id)
	})
}

func (g *AccountsGroup) ListMessages(c echo.Context) error {
	account := accountFromContext(c)

	filter := types.MessageFilter{
		AccountId:      account.Id,
		FolderId:       c.QueryParam("folder_id"),
		Status:         types.MessageStatus(c.QueryParam("status")),
		IncludeDeleted: c.QueryParam("include_deleted") == "true",
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid status %q", filter.Status))
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return ErrorResponse(c, http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = limit
	}

	key := fmt.Sprintf("messages:%s:%s:%d:%t", filter.FolderId, filter.Status, filter.Limit, filter.IncludeDeleted)
	return g.cached(c, account.Id, key, func() (interface{}, error) {
		return g.backend.ListMessages(c.Request().Context(), filter)
	})
}

// cached serves a listing from the read cache, filling it on a miss
func (g *AccountsGroup) cached(c echo.Context, accountId, key string, load func() (interface{}, error)) error {
	ctx := c.Request().Context()

	if b, ok := g.cache.Get(ctx, accountId, key); ok {
		return SuccessResponse(c, json.RawMessage(b))
	}

	data, err := load()
	if err != nil {
		return HandleError(c, err)
	}

	b, err := json.Marshal(data)
	if err != nil {
		return HandleError(c, err)
	}
	if err := g.cache.Set(ctx, accountId, key, b); err != nil {
		log.Warn().Err(err).Str("account_id", accountId).Msg("failed to fill cache")
	}
	return SuccessResponse(c, json.RawMessage(b))
}

package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const accountContextKey = "account"

// accessibleAccount loads an account and checks the caller may act on it.
// Authentication is checked before any store access.
func accessibleAccount(c echo.Context, backend repository.BackendRepository, accountId string) (*types.Account, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	account, err := backend.GetAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAccountAccess(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// NewAccountAccessMiddleware resolves :account_id and stores the account on the context.
func NewAccountAccessMiddleware(backend repository.BackendRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accountId := c.Param("account_id")
			if accountId == "" {
				return ErrorResponse(c, http.StatusBadRequest, "account_id required")
			}

			account, err := accessibleAccount(c, backend, accountId)
			if err != nil {
				return HandleError(c, err)
			}

			c.Set(accountContextKey, account)
			return next(c)
		}
	}
}

func accountFromContext(c echo.Context) *types.Account {
	account, _ := c.Get(accountContextKey).(*types.Account)
	return account
}

package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/types"
)

func failure(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{"success": false, "error": msg})
}

// HTTPMiddleware validates auth tokens and adds AuthInfo to context.
// Allows requests to proceed without auth; routes must explicitly require auth.
func HTTPMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()

			if validator.ValidateClusterToken(token) {
				ctx = WithAuthInfo(ctx, &types.AuthInfo{TokenType: types.TokenTypeClusterAdmin})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}

			info, err := validator.ValidateToken(ctx, token)
			if err != nil {
				log.Debug().Err(err).Msg("auth: invalid token")
				return failure(c, http.StatusUnauthorized, "invalid token")
			}

			if info != nil {
				ctx = WithAuthInfo(ctx, info)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			return next(c)
		}
	}
}

// Handler wrappers

func WithAuth(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := RequireAuth(c.Request().Context()); err != nil {
			return failure(c, http.StatusUnauthorized, err.Error())
		}
		return h(c)
	}
}

func WithClusterAdmin(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := RequireAuth(ctx); err != nil {
			return failure(c, http.StatusUnauthorized, err.Error())
		}
		if err := RequireClusterAdmin(ctx); err != nil {
			return failure(c, http.StatusForbidden, err.Error())
		}
		return h(c)
	}
}

// Middleware factories

func RequireClusterAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return WithClusterAdmin(next) }
}

func RequireAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc { return WithAuth(next) }
}

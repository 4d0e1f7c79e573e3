package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/types"
)

func TestJWTValidator(t *testing.T) {
	v := NewJWTValidator(types.AuthConfig{JWTSecret: "s3cret", Issuer: "mailsync"})

	token, err := v.Issue("user-1", "u@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)

	other := NewJWTValidator(types.AuthConfig{JWTSecret: "different", Issuer: "mailsync"})
	_, err = other.Validate(token)
	assert.Error(t, err)

	expired, err := v.Issue("user-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Validate(expired)
	assert.Error(t, err)

	wrongIssuer := NewJWTValidator(types.AuthConfig{JWTSecret: "s3cret", Issuer: "elsewhere"})
	_, err = wrongIssuer.Validate(token)
	assert.Error(t, err)
}

func TestHTTPMiddleware(t *testing.T) {
	jwtValidator := NewJWTValidator(types.AuthConfig{JWTSecret: "s3cret"})
	validator := NewCompositeValidator("admin-token", jwtValidator)

	e := echo.New()
	e.Use(HTTPMiddleware(validator))
	e.GET("/whoami", func(c echo.Context) error {
		info := AuthInfoFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]interface{}{
			"admin": info.IsClusterAdmin(),
			"user":  info.UserId(),
		})
	}, RequireAuthMiddleware())
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireClusterAdminMiddleware())

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/whoami", "garbage").Code)

	rec := do("/whoami", "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":true,"user":""}`, rec.Body.String())

	userToken, err := jwtValidator.Issue("user-7", "", time.Hour)
	require.NoError(t, err)
	rec = do("/whoami", userToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":false,"user":"user-7"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, do("/admin", userToken).Code)
	assert.Equal(t, http.StatusNoContent, do("/admin", "admin-token").Code)
}

func TestRequireAccountAccess(t *testing.T) {
	account := &types.Account{Id: "a", UserId: "owner"}

	assert.ErrorIs(t, RequireAccountAccess(context.Background(), account), ErrAuthRequired)

	owner := WithAuthInfo(context.Background(), &types.AuthInfo{TokenType: types.TokenTypeUser, User: &types.UserInfo{Id: "owner"}})
	assert.NoError(t, RequireAccountAccess(owner, account))

	stranger := WithAuthInfo(context.Background(), &types.AuthInfo{TokenType: types.TokenTypeUser, User: &types.UserInfo{Id: "someone"}})
	assert.ErrorIs(t, RequireAccountAccess(stranger, account), ErrForbidden)

	admin := WithAuthInfo(context.Background(), &types.AuthInfo{TokenType: types.TokenTypeClusterAdmin})
	assert.NoError(t, RequireAccountAccess(admin, account))
}

package auth

import (
	"context"
	"errors"

	"github.com/beam-cloud/mailsync/pkg/types"
)

type ctxKey int

const authInfoKey ctxKey = iota

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrAdminRequired = errors.New("admin access required")
	ErrForbidden     = errors.New("access denied")
)

// --- Context get/set ---

func WithAuthInfo(ctx context.Context, info *types.AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

func AuthInfoFromContext(ctx context.Context) *types.AuthInfo {
	info, _ := ctx.Value(authInfoKey).(*types.AuthInfo)
	return info
}

// --- Authorization checks ---

func RequireAuth(ctx context.Context) error {
	if AuthInfoFromContext(ctx) == nil {
		return ErrAuthRequired
	}
	return nil
}

func RequireClusterAdmin(ctx context.Context) error {
	if i := AuthInfoFromContext(ctx); i == nil || !i.IsClusterAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// RequireAccountAccess checks that the caller owns the account or is a cluster admin
func RequireAccountAccess(ctx context.Context, account *types.Account) error {
	i := AuthInfoFromContext(ctx)
	if i == nil {
		return ErrAuthRequired
	}
	if !i.HasAccountAccess(account.UserId) {
		return ErrForbidden
	}
	return nil
}

// --- Boolean checks ---

func IsAuthenticated(ctx context.Context) bool { return AuthInfoFromContext(ctx) != nil }
func IsClusterAdmin(ctx context.Context) bool  { return AuthInfoFromContext(ctx).IsClusterAdmin() }

// --- Field accessors ---

func UserId(ctx context.Context) string { return AuthInfoFromContext(ctx).UserId() }

func SweepScope(ctx context.Context) types.SweepScope {
	return AuthInfoFromContext(ctx).SweepScope()
}

package types

// TokenType represents the type of authentication token.
type TokenType string

const (
	TokenTypeClusterAdmin TokenType = "cluster_admin"
	TokenTypeUser         TokenType = "user"
)

// AuthInfo contains identity information for authenticated requests.
type AuthInfo struct {
	TokenType TokenType
	User      *UserInfo
}

type UserInfo struct {
	Id    string
	Email string
}

func (a *AuthInfo) IsClusterAdmin() bool {
	return a != nil && a.TokenType == TokenTypeClusterAdmin
}

func (a *AuthInfo) IsUser() bool {
	return a != nil && a.TokenType == TokenTypeUser && a.User != nil && a.User.Id != ""
}

func (a *AuthInfo) UserId() string {
	if a == nil || a.User == nil {
		return ""
	}
	return a.User.Id
}

// HasAccountAccess reports whether the caller may act on an account owned by ownerId
func (a *AuthInfo) HasAccountAccess(ownerId string) bool {
	if a == nil {
		return false
	}
	if a.IsClusterAdmin() {
		return true
	}
	return a.IsUser() && a.User.Id == ownerId
}

// SweepScope returns the sweep scope implied by the caller
func (a *AuthInfo) SweepScope() SweepScope {
	if a.IsClusterAdmin() {
		return SweepScope{}
	}
	return SweepScope{UserId: a.UserId()}
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/beam-cloud/mailsync/pkg/types"
)

// TokenValidator resolves bearer tokens to identities
type TokenValidator interface {
	ValidateClusterToken(token string) bool
	ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error)
}

// Claims are the user token claims. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HS256 user tokens
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewJWTValidator(cfg types.AuthConfig) *JWTValidator {
	return &JWTValidator{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, audience: cfg.Audience}
}

// Issue signs a user token. Used by the CLI and tests.
func (v *JWTValidator) Issue(userId, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *JWTValidator) Validate(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.Subject == "" {
			return nil, errors.New("token has no subject")
		}
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// CompositeValidator checks the cluster admin token first, then user JWTs.
type CompositeValidator struct {
	clusterToken string
	jwt          *JWTValidator
}

func NewCompositeValidator(clusterToken string, jwtValidator *JWTValidator) *CompositeValidator {
	return &CompositeValidator{clusterToken: clusterToken, jwt: jwtValidator}
}

func (v *CompositeValidator) ValidateClusterToken(token string) bool {
	return v.clusterToken != "" && token == v.clusterToken
}

func (v *CompositeValidator) ValidateToken(ctx context.Context, token string) (*types.AuthInfo, error) {
	if v.jwt == nil || len(v.jwt.secret) == 0 {
		return nil, errors.New("user tokens are not enabled")
	}

	claims, err := v.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	return &types.AuthInfo{
		TokenType: types.TokenTypeUser,
		User:      &types.UserInfo{Id: claims.Subject, Email: claims.Email},
	}, nil
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the tenant scope and role that every API operation is
// evaluated against. The subject holds the caller's display name.
type Claims struct {
	TenantID int64  `json:"tid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// MintToken signs an access token for the given tenant-scoped identity
func MintToken(tenantID int64, role, name, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseClaims validates a token and returns its claims
func ParseClaims(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

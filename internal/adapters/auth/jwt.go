package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Role is the account role carried in the token. Validated once here at
// the boundary; handlers work with the typed identity, not raw strings.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	TenantID string
	Role     Role
}

type claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type JWT struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) *JWT {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for the given identity. Used by tests and by the
// external auth provider's provisioning hook.
func (j *JWT) Sign(id Identity) (string, error) {
	c := claims{
		TenantID: id.TenantID,
		Role:     string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
}

// Validate parses and verifies a token, returning the typed identity.
func (j *JWT) Validate(token string) (Identity, error) {
	if len(j.secret) == 0 {
		return Identity{}, errors.New("no signing secret configured")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	role, err := ParseRole(c.Role)
	if err != nil {
		return Identity{}, err
	}
	if role == RoleOwner && c.TenantID == "" {
		return Identity{}, errors.New("owner token missing tenant")
	}
	return Identity{TenantID: c.TenantID, Role: role}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

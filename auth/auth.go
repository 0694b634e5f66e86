// Package auth establishes the identity behind a request: it issues HS256
// bearer tokens at register/login time and verifies them on every protected
// route. An Identity is immutable for the request's duration.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether s is a member of the declared role set.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin
}

const tokenTTL = time.Hour

var (
	ErrMissingToken = errors.New("auth: access token missing")
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Identity is the authenticated subject of a request.
type Identity struct {
	UserID int
	Role   string
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Service signs and verifies bearer tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// IssueToken signs a token for the given subject. Claims carry the subject
// id and role; jti makes every issued token distinct.
func (s *Service) IssueToken(userID int, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"jti":    uuid.New().String(),
		"iat":    now.Unix(),
		"exp":    now.Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses and validates a raw token string.
func (s *Service) Verify(tokenStr string) (Identity, error) {
	t, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return Identity{}, ErrInvalidToken
	}
	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	userID, ok := mc["userId"].(float64)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	role, ok := mc["role"].(string)
	if !ok || !ValidRole(role) {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: int(userID), Role: role}, nil
}

// FromRequest extracts and verifies the bearer credential of r.
func (s *Service) FromRequest(r *http.Request) (Identity, error) {
	a := r.Header.Get("Authorization")
	if !strings.HasPrefix(a, "Bearer ") {
		return Identity{}, ErrMissingToken
	}
	return s.Verify(strings.TrimPrefix(a, "Bearer "))
}

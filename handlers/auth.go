package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"haidtracker-service/apperr"
	"haidtracker-service/auth"
	"haidtracker-service/models"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration and login. Both endpoints are
// unauthenticated and return a signed token plus a user summary.
type AuthHandler struct {
	db    *sqlx.DB
	cache cache.Cache
	auth  *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *sqlx.DB, cache cache.Cache, authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{
		db:    db,
		cache: cache,
		auth:  authSvc,
	}
}

// Register handles POST /auth/register - open self-registration.
// An unrecognized or absent role is floored to "user", never rejected;
// only the admin create-user endpoint assigns roles explicitly.
func (h *AuthHandler) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "Register request")

	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	role := req.Role
	if !auth.ValidRole(role) {
		role = auth.RoleUser
	}

	var existingID int
	err := h.db.Get(&existingID, "SELECT id FROM users WHERE email = ?", req.Email)
	if err == nil {
		logRequest(ctx, "info", "Email already registered", zap.String("email", req.Email))
		respondError(ctx, w, apperr.Conflict("Email already registered"))
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		respondError(ctx, w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logRequest(ctx, "error", "Password hashing failed", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to process password"))
		return
	}

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO users (email, name, password, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		req.Email, req.Name, string(hashed), role, now, now)
	if err != nil {
		logRequest(ctx, "error", "Failed to create user", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to create user"))
		return
	}
	id, _ := result.LastInsertId()
	userID := int(id)

	h.cache.Delete("users:list")

	token, err := h.auth.IssueToken(userID, role)
	if err != nil {
		logRequest(ctx, "error", "Token issuance failed", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to issue token"))
		return
	}

	logRequest(ctx, "info", "User registered", zap.Int("user_id", userID))

	respondJSON(w, http.StatusCreated, models.AuthResponse{
		Token: token,
		User:  models.UserSummary{ID: userID, Email: req.Email, Name: req.Name, Role: role},
	})
}

// Login handles POST /auth/login. Unknown email and wrong password produce
// the same response so credentials cannot be probed.
func (h *AuthHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "Login request")

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	var user models.User
	err := h.db.Get(&user, "SELECT id, email, name, password, role FROM users WHERE email = ?", req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		logRequest(ctx, "info", "Login failed: unknown email", zap.String("email", req.Email))
		respondError(ctx, w, apperr.Unauthenticated("Invalid email or password"))
		return
	}
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logRequest(ctx, "info", "Login failed: wrong password", zap.Int("user_id", user.ID))
		respondError(ctx, w, apperr.Unauthenticated("Invalid email or password"))
		return
	}

	token, err := h.auth.IssueToken(user.ID, user.Role)
	if err != nil {
		logRequest(ctx, "error", "Token issuance failed", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to issue token"))
		return
	}

	logRequest(ctx, "info", "Login successful", zap.Int("user_id", user.ID))

	respondJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user.Summary()})
}

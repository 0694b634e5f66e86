package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"haidtracker-service/apperr"
	"haidtracker-service/auth"
	"haidtracker-service/models"
	"haidtracker-service/policy"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = "id, email, name, role, created_at, updated_at"

// UserHandler handles user-related operations
type UserHandler struct {
	db    *sqlx.DB
	cache cache.Cache
	auth  *auth.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *sqlx.DB, cache cache.Cache, authSvc *auth.Service) *UserHandler {
	return &UserHandler{
		db:    db,
		cache: cache,
		auth:  authSvc,
	}
}

// GetUsers handles GET /users - list all users (admin only)
func (h *UserHandler) GetUsers(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("Only admins may list users"))
		return
	}

	logRequest(ctx, "info", "Listing users")

	// Try cache first
	cacheKey := "users:list"
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cached.([]byte); ok {
			logRequest(ctx, "debug", "Serving from cache")
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	var users []models.User
	if err := h.db.Select(&users, "SELECT "+userColumns+" FROM users ORDER BY id ASC"); err != nil {
		logRequest(ctx, "error", "Failed to query users", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}

	respondCached(ctx, w, h.cache, cacheKey, 5*time.Minute, summaries)
	logRequest(ctx, "info", "Users retrieved successfully", zap.Int("count", len(summaries)))
}

// CreateUser handles POST /users - create a new user (admin only).
// Unlike registration, an invalid role here is rejected rather than
// defaulted.
func (h *UserHandler) CreateUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("Only admins may create users"))
		return
	}

	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	role := req.Role
	if role == "" {
		role = auth.RoleUser
	} else if !auth.ValidRole(role) {
		respondError(ctx, w, apperr.Invalid("Invalid role"))
		return
	}

	var existingID int
	err = h.db.Get(&existingID, "SELECT id FROM users WHERE email = ?", req.Email)
	if err == nil {
		respondError(ctx, w, apperr.Conflict("Email already registered"))
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Creating user", zap.String("email", req.Email), zap.String("role", role))

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

	logRequest(ctx, "info", "User created successfully", zap.Int("user_id", userID))

	respondJSON(w, http.StatusCreated, models.UserSummary{ID: userID, Email: req.Email, Name: req.Name, Role: role})
}

// GetUser handles GET /users/{id} - self or admin
func (h *UserHandler) GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, id, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to this user"))
		return
	}

	logRequest(ctx, "info", "Getting user", zap.Int("user_id", id))

	user, err := h.fetchUser(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Summary())
}

// UpdateUser handles PUT /users/{id} - partial update, self or admin.
// Role changes require the admin role even on self-update.
func (h *UserHandler) UpdateUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, id, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to update this user"))
		return
	}

	var req models.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.fetchUser(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Updating user", zap.Int("user_id", id))

	setParts, args, err := h.userSetClauses(req.Email, req.Name, req.Password, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.Role.Set {
		if !identity.IsAdmin() {
			respondError(ctx, w, apperr.Forbidden("Only admins may update roles"))
			return
		}
		if !req.Role.Valid || !auth.ValidRole(req.Role.Value) {
			respondError(ctx, w, apperr.Invalid("Invalid role"))
			return
		}
		setParts = append(setParts, "role = ?")
		args = append(args, req.Role.Value)
	}

	if err := h.applyUserUpdate(ctx, id, setParts, args); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.fetchUser(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "User updated successfully", zap.Int("user_id", id))
	respondJSON(w, http.StatusOK, user.Summary())
}

// DeleteUser handles DELETE /users/{id} - self or admin.
// Admin self-deletion is permitted; see DESIGN.md.
func (h *UserHandler) DeleteUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, id, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to delete this user"))
		return
	}

	logRequest(ctx, "info", "Deleting user", zap.Int("user_id", id))

	result, err := h.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		logRequest(ctx, "error", "Failed to delete user", zap.Error(err), zap.Int("user_id", id))
		respondError(ctx, w, apperr.Internal("Failed to delete user"))
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(ctx, w, apperr.NotFound("User not found"))
		return
	}

	h.invalidateUser(id)

	logRequest(ctx, "info", "User deleted successfully", zap.Int("user_id", id))
	respondJSON(w, http.StatusNoContent, nil)
}

// GetProfile handles GET /users/profile - the requester's own record
func (h *UserHandler) GetProfile(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Getting profile", zap.Int("user_id", identity.UserID))

	user, err := h.fetchUser(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Summary())
}

// UpdateProfile handles PUT /users/profile - self-service update without
// role changes.
func (h *UserHandler) UpdateProfile(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.fetchUser(ctx, identity.UserID); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Updating profile", zap.Int("user_id", identity.UserID))

	setParts, args, err := h.userSetClauses(req.Email, req.Name, req.Password, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.applyUserUpdate(ctx, identity.UserID, setParts, args); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.fetchUser(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Summary())
}

// fetchUser loads one user row or classifies the miss.
func (h *UserHandler) fetchUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := h.db.Get(&user, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query user", zap.Error(err), zap.Int("user_id", id))
		return models.User{}, apperr.Internal("Database error")
	}
	return user, nil
}

// userSetClauses builds the shared email/name/password SET fragments for
// partial user updates.
func (h *UserHandler) userSetClauses(email, name, password models.OptionalString, targetID int) ([]string, []interface{}, error) {
	setParts := []string{}
	args := []interface{}{}

	if email.Set {
		if !email.Valid {
			return nil, nil, apperr.Invalid("invalid email format")
		}
		if err := validate.Var(email.Value, "required,email"); err != nil {
			return nil, nil, apperr.Invalid("invalid email format")
		}
		var otherID int
		err := h.db.Get(&otherID, "SELECT id FROM users WHERE email = ?", email.Value)
		if err == nil && otherID != targetID {
			return nil, nil, apperr.Conflict("Email already in use by another user")
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		setParts = append(setParts, "email = ?")
		args = append(args, email.Value)
	}
	if name.Set {
		setParts = append(setParts, "name = ?")
		if name.Valid {
			args = append(args, name.Value)
		} else {
			args = append(args, nil)
		}
	}
	if password.Set {
		if !password.Valid || len(password.Value) < 6 {
			return nil, nil, apperr.Invalid("password must be at least 6 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password.Value), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, apperr.Internal("Failed to process password")
		}
		setParts = append(setParts, "password = ?")
		args = append(args, string(hashed))
	}
	return setParts, args, nil
}

// applyUserUpdate runs the dynamic UPDATE and invalidates caches.
func (h *UserHandler) applyUserUpdate(ctx context.Context, id int, setParts []string, args []interface{}) error {
	if len(setParts) == 0 {
		return apperr.Invalid("No fields to update")
	}

	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE users SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	result, err := h.db.Exec(query, args...)
	if err != nil {
		logRequest(ctx, "error", "Failed to update user", zap.Error(err), zap.Int("user_id", id))
		return apperr.Internal("Failed to update user")
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NotFound("User not found")
	}

	h.invalidateUser(id)
	return nil
}

func (h *UserHandler) invalidateUser(id int) {
	h.cache.Delete("users:list")
}

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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
)

const cycleColumns = "id, user_id, start_date, end_date, note, created_at, updated_at"

// CycleHandler handles cycle-related operations
type CycleHandler struct {
	db    *sqlx.DB
	cache cache.Cache
	auth  *auth.Service
}

// NewCycleHandler creates a new cycle handler
func NewCycleHandler(db *sqlx.DB, cache cache.Cache, authSvc *auth.Service) *CycleHandler {
	return &CycleHandler{
		db:    db,
		cache: cache,
		auth:  authSvc,
	}
}

// GetCycles handles GET /cycles - admin sees all rows, everyone else only
// their own.
func (h *CycleHandler) GetCycles(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Listing cycles", zap.Int("user_id", identity.UserID))

	cacheKey := "cycles:list:all"
	if !identity.IsAdmin() {
		cacheKey = fmt.Sprintf("cycles:list:user:%d", identity.UserID)
	}
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cached.([]byte); ok {
			logRequest(ctx, "debug", "Serving cycles from cache")
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	cycles := []models.Cycle{}
	if identity.IsAdmin() {
		err = h.db.Select(&cycles, "SELECT "+cycleColumns+" FROM cycles ORDER BY start_date DESC")
	} else {
		err = h.db.Select(&cycles, "SELECT "+cycleColumns+" FROM cycles WHERE user_id = ? ORDER BY start_date DESC", identity.UserID)
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query cycles", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}

	respondCached(ctx, w, h.cache, cacheKey, 5*time.Minute, cycles)
	logRequest(ctx, "info", "Cycles retrieved successfully", zap.Int("count", len(cycles)))
}

// SearchCycles handles GET /cycles/search?noteKeyword=&startDate= with the
// same visibility scoping as the list.
func (h *CycleHandler) SearchCycles(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	query := r.URL.Query()
	noteKeyword := query.Get("noteKeyword")
	startDate := query.Get("startDate")

	logRequest(ctx, "info", "Searching cycles",
		zap.String("noteKeyword", noteKeyword), zap.String("startDate", startDate))

	where := []string{}
	args := []interface{}{}
	if !identity.IsAdmin() {
		where = append(where, "user_id = ?")
		args = append(args, identity.UserID)
	}
	if noteKeyword != "" {
		where = append(where, "LOWER(note) LIKE '%' || LOWER(?) || '%'")
		args = append(args, noteKeyword)
	}
	if startDate != "" {
		t, ok := parseDate(startDate)
		if !ok {
			respondError(ctx, w, apperr.Invalid("startDate must be a valid date"))
			return
		}
		where = append(where, "start_date = ?")
		args = append(args, t)
	}

	q := "SELECT " + cycleColumns + " FROM cycles"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_date DESC"

	cycles := []models.Cycle{}
	if err := h.db.Select(&cycles, q, args...); err != nil {
		logRequest(ctx, "error", "Failed to search cycles", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}

	respondJSON(w, http.StatusOK, cycles)
}

// GetCycleStats handles GET /cycles/stats - admin only. The policy check
// runs before any data access.
func (h *CycleHandler) GetCycleStats(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to statistics"))
		return
	}

	logRequest(ctx, "info", "Getting cycle statistics")

	cacheKey := "cycles:stats"
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cached.([]byte); ok {
			logRequest(ctx, "debug", "Serving stats from cache")
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	var total int
	if err := h.db.Get(&total, "SELECT COUNT(id) FROM cycles"); err != nil {
		logRequest(ctx, "error", "Failed to count cycles", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	counts := []models.CycleCount{}
	if err := h.db.Select(&counts, "SELECT user_id, COUNT(id) AS count FROM cycles GROUP BY user_id"); err != nil {
		logRequest(ctx, "error", "Failed to group cycles", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}

	respondCached(ctx, w, h.cache, cacheKey, 5*time.Minute, models.CycleStats{
		TotalCycles:       total,
		CycleCountsByUser: counts,
	})
}

// CreateCycle handles POST /cycles. An admin may assign the new cycle to
// another user via the body's userId; the target must exist.
func (h *CycleHandler) CreateCycle(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req models.CreateCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	startDate, ok := parseDate(req.StartDate)
	if !ok {
		respondError(ctx, w, apperr.Invalid("startDate must be a valid date"))
		return
	}
	var endDate *time.Time
	if req.EndDate != nil {
		t, ok := parseDate(*req.EndDate)
		if !ok {
			respondError(ctx, w, apperr.Invalid("endDate must be a valid date if provided"))
			return
		}
		endDate = &t
	}

	ownerID, err := policy.EffectiveOwner(identity, req.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if ownerID != identity.UserID {
		var targetID int
		err := h.db.Get(&targetID, "SELECT id FROM users WHERE id = ?", ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(ctx, w, apperr.NotFound("Target user not found"))
			return
		}
		if err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	logRequest(ctx, "info", "Creating cycle", zap.Int("owner_id", ownerID))

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO cycles (user_id, start_date, end_date, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		ownerID, startDate, endDate, req.Note, now, now)
	if err != nil {
		logRequest(ctx, "error", "Failed to create cycle", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to create cycle"))
		return
	}
	id, _ := result.LastInsertId()

	h.invalidateCycles(ownerID)

	cycle, err := h.fetchCycle(ctx, int(id))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Cycle created successfully", zap.Int("cycle_id", cycle.ID))
	respondJSON(w, http.StatusCreated, cycle)
}

// GetCycle handles GET /cycles/{id} - fetch first, then the ownership
// decision against the stored owner.
func (h *CycleHandler) GetCycle(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "cycle")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	cycle, err := h.fetchCycle(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, cycle.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to this cycle"))
		return
	}
	respondJSON(w, http.StatusOK, cycle)
}

// UpdateCycle handles PUT /cycles/{id} - partial update; endDate and note
// accept explicit null to clear the stored value.
func (h *CycleHandler) UpdateCycle(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "cycle")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchCycle(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to update this cycle"))
		return
	}

	var req models.UpdateCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	setParts := []string{}
	args := []interface{}{}

	if req.StartDate != nil {
		t, ok := parseDate(*req.StartDate)
		if !ok {
			respondError(ctx, w, apperr.Invalid("startDate must be a valid date if provided"))
			return
		}
		setParts = append(setParts, "start_date = ?")
		args = append(args, t)
	}
	if req.EndDate.Set {
		setParts = append(setParts, "end_date = ?")
		if req.EndDate.Valid {
			t, ok := parseDate(req.EndDate.Value)
			if !ok {
				respondError(ctx, w, apperr.Invalid("endDate must be a valid date or null if provided"))
				return
			}
			args = append(args, t)
		} else {
			args = append(args, nil)
		}
	}
	if req.Note.Set {
		setParts = append(setParts, "note = ?")
		if req.Note.Valid {
			args = append(args, req.Note.Value)
		} else {
			args = append(args, nil)
		}
	}

	if len(setParts) == 0 {
		respondError(ctx, w, apperr.Invalid("No fields to update"))
		return
	}

	logRequest(ctx, "info", "Updating cycle", zap.Int("cycle_id", id))

	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE cycles SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	if _, err := h.db.Exec(query, args...); err != nil {
		logRequest(ctx, "error", "Failed to update cycle", zap.Error(err), zap.Int("cycle_id", id))
		respondError(ctx, w, apperr.Internal("Failed to update cycle"))
		return
	}

	h.invalidateCycles(existing.UserID)

	updated, err := h.fetchCycle(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Cycle updated successfully", zap.Int("cycle_id", id))
	respondJSON(w, http.StatusOK, updated)
}

// DeleteCycle handles DELETE /cycles/{id}
func (h *CycleHandler) DeleteCycle(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "cycle")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchCycle(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to delete this cycle"))
		return
	}

	logRequest(ctx, "info", "Deleting cycle", zap.Int("cycle_id", id))

	if _, err := h.db.Exec("DELETE FROM cycles WHERE id = ?", id); err != nil {
		logRequest(ctx, "error", "Failed to delete cycle", zap.Error(err), zap.Int("cycle_id", id))
		respondError(ctx, w, apperr.Internal("Failed to delete cycle"))
		return
	}

	h.invalidateCycles(existing.UserID)

	logRequest(ctx, "info", "Cycle deleted successfully", zap.Int("cycle_id", id))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *CycleHandler) fetchCycle(ctx context.Context, id int) (models.Cycle, error) {
	var cycle models.Cycle
	err := h.db.Get(&cycle, "SELECT "+cycleColumns+" FROM cycles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cycle{}, apperr.NotFound("Cycle not found")
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query cycle", zap.Error(err), zap.Int("cycle_id", id))
		return models.Cycle{}, apperr.Internal("Database error")
	}
	return cycle, nil
}

func (h *CycleHandler) invalidateCycles(ownerID int) {
	h.cache.Delete("cycles:list:all")
	h.cache.Delete(fmt.Sprintf("cycles:list:user:%d", ownerID))
	h.cache.Delete("cycles:stats")
}

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
	"go.uber.org/zap"
)

const analyticColumns = "id, user_id, period_start, period_end, average_cycle, symptom_summary, created_at, updated_at"

// AnalyticHandler handles analytic summary operations
type AnalyticHandler struct {
	db   *sqlx.DB
	auth *auth.Service
}

// NewAnalyticHandler creates a new analytic handler
func NewAnalyticHandler(db *sqlx.DB, authSvc *auth.Service) *AnalyticHandler {
	return &AnalyticHandler{
		db:   db,
		auth: authSvc,
	}
}

// GetAllAnalytics handles GET /analytics/all - admin only
func (h *AnalyticHandler) GetAllAnalytics(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("Only admins may list all analytics"))
		return
	}

	logRequest(ctx, "info", "Listing all analytics")

	analytics := []models.Analytic{}
	if err := h.db.Select(&analytics, "SELECT "+analyticColumns+" FROM analytics ORDER BY period_start DESC"); err != nil {
		logRequest(ctx, "error", "Failed to query analytics", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

// GetAnalytics handles GET /analytics - the requester's own records
func (h *AnalyticHandler) GetAnalytics(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Listing analytics", zap.Int("user_id", identity.UserID))

	analytics := []models.Analytic{}
	if err := h.db.Select(&analytics, "SELECT "+analyticColumns+" FROM analytics WHERE user_id = ? ORDER BY period_start DESC", identity.UserID); err != nil {
		logRequest(ctx, "error", "Failed to query analytics", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

// CreateAnalytic handles POST /analytics. The owner is always the creator.
func (h *AnalyticHandler) CreateAnalytic(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req models.CreateAnalyticRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	periodStart, ok := parseDate(req.PeriodStart)
	if !ok {
		respondError(ctx, w, apperr.Invalid("periodStart must be a valid date"))
		return
	}
	periodEnd, ok := parseDate(req.PeriodEnd)
	if !ok {
		respondError(ctx, w, apperr.Invalid("periodEnd must be a valid date"))
		return
	}

	logRequest(ctx, "info", "Creating analytic", zap.Int("owner_id", identity.UserID))

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO analytics (user_id, period_start, period_end, average_cycle, symptom_summary, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		identity.UserID, periodStart, periodEnd, req.AverageCycle, req.SymptomSummary, now, now)
	if err != nil {
		logRequest(ctx, "error", "Failed to create analytic", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to create analytic"))
		return
	}
	id, _ := result.LastInsertId()

	created, err := h.fetchAnalytic(ctx, int(id))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Analytic created successfully", zap.Int("analytic_id", created.ID))
	respondJSON(w, http.StatusCreated, created)
}

// GetAnalytic handles GET /analytics/{id}
func (h *AnalyticHandler) GetAnalytic(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "analytic")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	analytic, err := h.fetchAnalytic(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, analytic.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to this analytic"))
		return
	}
	respondJSON(w, http.StatusOK, analytic)
}

// UpdateAnalytic handles PUT /analytics/{id} - partial update; averageCycle
// and symptomSummary accept explicit null.
func (h *AnalyticHandler) UpdateAnalytic(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "analytic")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchAnalytic(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to update this analytic"))
		return
	}

	var req models.UpdateAnalyticRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	setParts := []string{}
	args := []interface{}{}

	if req.PeriodStart != nil {
		t, ok := parseDate(*req.PeriodStart)
		if !ok {
			respondError(ctx, w, apperr.Invalid("periodStart must be a valid date if provided"))
			return
		}
		setParts = append(setParts, "period_start = ?")
		args = append(args, t)
	}
	if req.PeriodEnd != nil {
		t, ok := parseDate(*req.PeriodEnd)
		if !ok {
			respondError(ctx, w, apperr.Invalid("periodEnd must be a valid date if provided"))
			return
		}
		setParts = append(setParts, "period_end = ?")
		args = append(args, t)
	}
	if req.AverageCycle.Set {
		setParts = append(setParts, "average_cycle = ?")
		if req.AverageCycle.Valid {
			args = append(args, req.AverageCycle.Value)
		} else {
			args = append(args, nil)
		}
	}
	if req.SymptomSummary.Set {
		setParts = append(setParts, "symptom_summary = ?")
		if req.SymptomSummary.Valid {
			args = append(args, req.SymptomSummary.Value)
		} else {
			args = append(args, nil)
		}
	}

	if len(setParts) == 0 {
		respondError(ctx, w, apperr.Invalid("No fields to update"))
		return
	}

	logRequest(ctx, "info", "Updating analytic", zap.Int("analytic_id", id))

	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE analytics SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	if _, err := h.db.Exec(query, args...); err != nil {
		logRequest(ctx, "error", "Failed to update analytic", zap.Error(err), zap.Int("analytic_id", id))
		respondError(ctx, w, apperr.Internal("Failed to update analytic"))
		return
	}

	updated, err := h.fetchAnalytic(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Analytic updated successfully", zap.Int("analytic_id", id))
	respondJSON(w, http.StatusOK, updated)
}

// DeleteAnalytic handles DELETE /analytics/{id}
func (h *AnalyticHandler) DeleteAnalytic(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "analytic")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchAnalytic(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to delete this analytic"))
		return
	}

	logRequest(ctx, "info", "Deleting analytic", zap.Int("analytic_id", id))

	if _, err := h.db.Exec("DELETE FROM analytics WHERE id = ?", id); err != nil {
		logRequest(ctx, "error", "Failed to delete analytic", zap.Error(err), zap.Int("analytic_id", id))
		respondError(ctx, w, apperr.Internal("Failed to delete analytic"))
		return
	}

	logRequest(ctx, "info", "Analytic deleted successfully", zap.Int("analytic_id", id))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AnalyticHandler) fetchAnalytic(ctx context.Context, id int) (models.Analytic, error) {
	var analytic models.Analytic
	err := h.db.Get(&analytic, "SELECT "+analyticColumns+" FROM analytics WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Analytic{}, apperr.NotFound("Analytic not found")
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query analytic", zap.Error(err), zap.Int("analytic_id", id))
		return models.Analytic{}, apperr.Internal("Database error")
	}
	return analytic, nil
}

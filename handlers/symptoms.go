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

const symptomColumns = "id, user_id, date, mood, symptoms, created_at, updated_at"

// SymptomHandler handles symptom log operations
type SymptomHandler struct {
	db   *sqlx.DB
	auth *auth.Service
}

// NewSymptomHandler creates a new symptom handler
func NewSymptomHandler(db *sqlx.DB, authSvc *auth.Service) *SymptomHandler {
	return &SymptomHandler{
		db:   db,
		auth: authSvc,
	}
}

// GetSymptoms handles GET /symptoms - admin sees all rows, everyone else
// only their own.
func (h *SymptomHandler) GetSymptoms(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Listing symptoms", zap.Int("user_id", identity.UserID))

	symptoms := []models.Symptom{}
	if identity.IsAdmin() {
		err = h.db.Select(&symptoms, "SELECT "+symptomColumns+" FROM symptoms ORDER BY date DESC")
	} else {
		err = h.db.Select(&symptoms, "SELECT "+symptomColumns+" FROM symptoms WHERE user_id = ? ORDER BY date DESC", identity.UserID)
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query symptoms", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, symptoms)
}

// GetSymptomsByUser handles GET /symptoms/user/{id} - admin only
func (h *SymptomHandler) GetSymptomsByUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("Only admins may list another user's symptoms"))
		return
	}
	userID, err := pathID(r, "user")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Listing symptoms by user", zap.Int("target_user_id", userID))

	symptoms := []models.Symptom{}
	if err := h.db.Select(&symptoms, "SELECT "+symptomColumns+" FROM symptoms WHERE user_id = ? ORDER BY date DESC", userID); err != nil {
		logRequest(ctx, "error", "Failed to query symptoms", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, symptoms)
}

// CreateSymptom handles POST /symptoms. Mood and symptoms are stored
// trimmed; whitespace-only values are rejected.
func (h *SymptomHandler) CreateSymptom(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req models.CreateSymptomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		respondError(ctx, w, apperr.Invalid("date must be a valid date"))
		return
	}
	mood, err := requiredTrimmed(req.Mood, "mood")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	symptoms, err := requiredTrimmed(req.Symptoms, "symptoms")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Creating symptom", zap.Int("owner_id", identity.UserID))

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO symptoms (user_id, date, mood, symptoms, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		identity.UserID, date, mood, symptoms, now, now)
	if err != nil {
		logRequest(ctx, "error", "Failed to create symptom", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to create symptom"))
		return
	}
	id, _ := result.LastInsertId()

	created, err := h.fetchSymptom(ctx, int(id))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Symptom created successfully", zap.Int("symptom_id", created.ID))
	respondJSON(w, http.StatusCreated, created)
}

// GetSymptom handles GET /symptoms/{id}
func (h *SymptomHandler) GetSymptom(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "symptom")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	symptom, err := h.fetchSymptom(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, symptom.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to this symptom"))
		return
	}
	respondJSON(w, http.StatusOK, symptom)
}

// UpdateSymptom handles PUT /symptoms/{id} - partial update; none of the
// fields are nullable.
func (h *SymptomHandler) UpdateSymptom(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "symptom")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchSymptom(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to update this symptom"))
		return
	}

	var req models.UpdateSymptomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	setParts := []string{}
	args := []interface{}{}

	if req.Date != nil {
		t, ok := parseDate(*req.Date)
		if !ok {
			respondError(ctx, w, apperr.Invalid("date must be a valid date if provided"))
			return
		}
		setParts = append(setParts, "date = ?")
		args = append(args, t)
	}
	if req.Mood.Set {
		if !req.Mood.Valid {
			respondError(ctx, w, apperr.Invalid("mood must be a non-empty string"))
			return
		}
		mood, err := requiredTrimmed(req.Mood.Value, "mood")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		setParts = append(setParts, "mood = ?")
		args = append(args, mood)
	}
	if req.Symptoms.Set {
		if !req.Symptoms.Valid {
			respondError(ctx, w, apperr.Invalid("symptoms must be a non-empty string"))
			return
		}
		symptoms, err := requiredTrimmed(req.Symptoms.Value, "symptoms")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		setParts = append(setParts, "symptoms = ?")
		args = append(args, symptoms)
	}

	if len(setParts) == 0 {
		respondError(ctx, w, apperr.Invalid("No fields to update"))
		return
	}

	logRequest(ctx, "info", "Updating symptom", zap.Int("symptom_id", id))

	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE symptoms SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	if _, err := h.db.Exec(query, args...); err != nil {
		logRequest(ctx, "error", "Failed to update symptom", zap.Error(err), zap.Int("symptom_id", id))
		respondError(ctx, w, apperr.Internal("Failed to update symptom"))
		return
	}

	updated, err := h.fetchSymptom(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Symptom updated successfully", zap.Int("symptom_id", id))
	respondJSON(w, http.StatusOK, updated)
}

// DeleteSymptom handles DELETE /symptoms/{id}
func (h *SymptomHandler) DeleteSymptom(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "symptom")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchSymptom(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to delete this symptom"))
		return
	}

	logRequest(ctx, "info", "Deleting symptom", zap.Int("symptom_id", id))

	if _, err := h.db.Exec("DELETE FROM symptoms WHERE id = ?", id); err != nil {
		logRequest(ctx, "error", "Failed to delete symptom", zap.Error(err), zap.Int("symptom_id", id))
		respondError(ctx, w, apperr.Internal("Failed to delete symptom"))
		return
	}

	logRequest(ctx, "info", "Symptom deleted successfully", zap.Int("symptom_id", id))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *SymptomHandler) fetchSymptom(ctx context.Context, id int) (models.Symptom, error) {
	var symptom models.Symptom
	err := h.db.Get(&symptom, "SELECT "+symptomColumns+" FROM symptoms WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Symptom{}, apperr.NotFound("Symptom not found")
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query symptom", zap.Error(err), zap.Int("symptom_id", id))
		return models.Symptom{}, apperr.Internal("Database error")
	}
	return symptom, nil
}

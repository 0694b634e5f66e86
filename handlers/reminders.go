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

const reminderColumns = "id, user_id, title, description, remind_at, is_active, created_at, updated_at"

// ReminderHandler handles reminder operations. Reminders are stored flags;
// nothing here schedules or fires them.
type ReminderHandler struct {
	db   *sqlx.DB
	auth *auth.Service
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(db *sqlx.DB, authSvc *auth.Service) *ReminderHandler {
	return &ReminderHandler{
		db:   db,
		auth: authSvc,
	}
}

// GetAllReminders handles GET /reminders/all - admin only
func (h *ReminderHandler) GetAllReminders(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, 0, true) {
		respondError(ctx, w, apperr.Forbidden("Only admins may list all reminders"))
		return
	}

	logRequest(ctx, "info", "Listing all reminders")

	reminders := []models.Reminder{}
	if err := h.db.Select(&reminders, "SELECT "+reminderColumns+" FROM reminders ORDER BY remind_at ASC"); err != nil {
		logRequest(ctx, "error", "Failed to query reminders", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, reminders)
}

// GetReminders handles GET /reminders - the requester's own reminders
func (h *ReminderHandler) GetReminders(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Listing reminders", zap.Int("user_id", identity.UserID))

	reminders := []models.Reminder{}
	if err := h.db.Select(&reminders, "SELECT "+reminderColumns+" FROM reminders WHERE user_id = ? ORDER BY remind_at ASC", identity.UserID); err != nil {
		logRequest(ctx, "error", "Failed to query reminders", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Database error"))
		return
	}
	respondJSON(w, http.StatusOK, reminders)
}

// CreateReminder handles POST /reminders. The active flag defaults to true.
func (h *ReminderHandler) CreateReminder(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req models.CreateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	title, err := requiredTrimmed(req.Title, "title")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	remindAt, ok := parseDate(req.RemindAt)
	if !ok {
		respondError(ctx, w, apperr.Invalid("remindAt must be a valid date"))
		return
	}
	var description *string
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d != "" {
			description = &d
		}
	}

	logRequest(ctx, "info", "Creating reminder", zap.Int("owner_id", identity.UserID))

	now := time.Now()
	result, err := h.db.Exec(
		"INSERT INTO reminders (user_id, title, description, remind_at, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		identity.UserID, title, description, remindAt, true, now, now)
	if err != nil {
		logRequest(ctx, "error", "Failed to create reminder", zap.Error(err))
		respondError(ctx, w, apperr.Internal("Failed to create reminder"))
		return
	}
	id, _ := result.LastInsertId()

	created, err := h.fetchReminder(ctx, int(id))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Reminder created successfully", zap.Int("reminder_id", created.ID))
	respondJSON(w, http.StatusCreated, created)
}

// GetReminder handles GET /reminders/{id}
func (h *ReminderHandler) GetReminder(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "reminder")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	reminder, err := h.fetchReminder(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, reminder.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to this reminder"))
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

// UpdateReminder handles PUT /reminders/{id} - partial update. Description
// accepts explicit null; isActive must be a genuine boolean.
func (h *ReminderHandler) UpdateReminder(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "reminder")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchReminder(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to update this reminder"))
		return
	}

	var req models.UpdateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	setParts := []string{}
	args := []interface{}{}

	if req.Title.Set {
		if !req.Title.Valid {
			respondError(ctx, w, apperr.Invalid("title must be a non-empty string"))
			return
		}
		title, err := requiredTrimmed(req.Title.Value, "title")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		setParts = append(setParts, "title = ?")
		args = append(args, title)
	}
	if req.Description.Set {
		setParts = append(setParts, "description = ?")
		if req.Description.Valid {
			d := strings.TrimSpace(req.Description.Value)
			if d == "" {
				args = append(args, nil)
			} else {
				args = append(args, d)
			}
		} else {
			args = append(args, nil)
		}
	}
	if req.RemindAt != nil {
		t, ok := parseDate(*req.RemindAt)
		if !ok {
			respondError(ctx, w, apperr.Invalid("remindAt must be a valid date if provided"))
			return
		}
		setParts = append(setParts, "remind_at = ?")
		args = append(args, t)
	}
	if req.IsActive.Set {
		if !req.IsActive.Valid {
			respondError(ctx, w, apperr.Invalid("isActive must be a boolean"))
			return
		}
		setParts = append(setParts, "is_active = ?")
		args = append(args, req.IsActive.Value)
	}

	if len(setParts) == 0 {
		respondError(ctx, w, apperr.Invalid("No fields to update"))
		return
	}

	logRequest(ctx, "info", "Updating reminder", zap.Int("reminder_id", id))

	setParts = append(setParts, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE reminders SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	if _, err := h.db.Exec(query, args...); err != nil {
		logRequest(ctx, "error", "Failed to update reminder", zap.Error(err), zap.Int("reminder_id", id))
		respondError(ctx, w, apperr.Internal("Failed to update reminder"))
		return
	}

	updated, err := h.fetchReminder(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	logRequest(ctx, "info", "Reminder updated successfully", zap.Int("reminder_id", id))
	respondJSON(w, http.StatusOK, updated)
}

// DeleteReminder handles DELETE /reminders/{id}
func (h *ReminderHandler) DeleteReminder(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	identity, err := identify(h.auth, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	id, err := pathID(r, "reminder")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	existing, err := h.fetchReminder(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !policy.IsAuthorized(identity, existing.UserID, false) {
		respondError(ctx, w, apperr.Forbidden("You do not have access to delete this reminder"))
		return
	}

	logRequest(ctx, "info", "Deleting reminder", zap.Int("reminder_id", id))

	if _, err := h.db.Exec("DELETE FROM reminders WHERE id = ?", id); err != nil {
		logRequest(ctx, "error", "Failed to delete reminder", zap.Error(err), zap.Int("reminder_id", id))
		respondError(ctx, w, apperr.Internal("Failed to delete reminder"))
		return
	}

	logRequest(ctx, "info", "Reminder deleted successfully", zap.Int("reminder_id", id))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *ReminderHandler) fetchReminder(ctx context.Context, id int) (models.Reminder, error) {
	var reminder models.Reminder
	err := h.db.Get(&reminder, "SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, apperr.NotFound("Reminder not found")
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query reminder", zap.Error(err), zap.Int("reminder_id", id))
		return models.Reminder{}, apperr.Internal("Database error")
	}
	return reminder, nil
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"haidtracker-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReminder(t *testing.T, h *ReminderHandler, ownerID int) models.Reminder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/reminders", map[string]interface{}{
		"title":       "Take iron supplement",
		"description": "With breakfast",
		"remindAt":    "2024-04-01T08:00:00Z",
	}, asUser(ownerID))
	h.CreateReminder(context.Background(), rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rm models.Reminder
	decodeBody(t, rec, &rm)
	return rm
}

func TestCreateReminderDefaultsActive(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	rm := createReminder(t, h, owner)
	assert.Equal(t, owner, rm.UserID)
	assert.True(t, rm.IsActive)
	assert.Equal(t, "Take iron supplement", rm.Title)
}

func TestUpdateReminderOnlyIsActive(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	rm := createReminder(t, h, owner)
	id := fmt.Sprint(rm.ID)

	rec := httptest.NewRecorder()
	req := withPathID(authedRequest(t, http.MethodPut, "/reminders/"+id, map[string]interface{}{
		"isActive": false,
	}, asUser(owner)), id)
	h.UpdateReminder(context.Background(), rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Reminder
	decodeBody(t, rec, &updated)
	assert.False(t, updated.IsActive)
	assert.Equal(t, rm.Title, updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "With breakfast", *updated.Description)
	assert.True(t, rm.RemindAt.Equal(updated.RemindAt))
}

func TestUpdateReminderRejectsNonBooleanActive(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	rm := createReminder(t, h, owner)
	id := fmt.Sprint(rm.ID)

	for name, value := range map[string]interface{}{
		"string": "false",
		"number": 0,
		"null":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := withPathID(authedRequest(t, http.MethodPut, "/reminders/"+id, map[string]interface{}{
				"isActive": value,
			}, asUser(owner)), id)
			h.UpdateReminder(context.Background(), rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestReminderDescriptionClearable(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	rm := createReminder(t, h, owner)
	id := fmt.Sprint(rm.ID)

	rec := httptest.NewRecorder()
	req := withPathID(authedRequest(t, http.MethodPut, "/reminders/"+id, map[string]interface{}{
		"description": nil,
	}, asUser(owner)), id)
	h.UpdateReminder(context.Background(), rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Reminder
	decodeBody(t, rec, &updated)
	assert.Nil(t, updated.Description)

	// title is required and cannot be cleared
	rec = httptest.NewRecorder()
	req = withPathID(authedRequest(t, http.MethodPut, "/reminders/"+id, map[string]interface{}{
		"title": nil,
	}, asUser(owner)), id)
	h.UpdateReminder(context.Background(), rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAllRemindersAdminOnly(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")
	admin := seedUser(t, db, "admin@example.com", "admin")

	createReminder(t, h, owner)

	rec := httptest.NewRecorder()
	h.GetAllReminders(context.Background(), rec, authedRequest(t, http.MethodGet, "/reminders/all", nil, asUser(owner)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.GetAllReminders(context.Background(), rec, authedRequest(t, http.MethodGet, "/reminders/all", nil, asAdmin(admin)))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Reminder
	decodeBody(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestCreateReminderRequiresTitle(t *testing.T) {
	db := newTestDB(t)
	h := NewReminderHandler(db, testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/reminders", map[string]interface{}{
		"title":    "   ",
		"remindAt": "2024-04-01T08:00:00Z",
	}, asUser(owner))
	h.CreateReminder(context.Background(), rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

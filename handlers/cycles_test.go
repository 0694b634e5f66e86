package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"haidtracker-service/auth"
	"haidtracker-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCycle(t *testing.T, h *CycleHandler, body map[string]interface{}, id auth.Identity) models.Cycle {
	t.Helper()
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/cycles", body, id)
	h.CreateCycle(context.Background(), rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Cycle
	decodeBody(t, rec, &c)
	return c
}

func TestCreateCycleDefaultsOwnerToRequester(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	c := createCycle(t, h, map[string]interface{}{
		"startDate": "2024-02-01",
		"note":      "light",
	}, asUser(owner))
	assert.Equal(t, owner, c.UserID)
	assert.Equal(t, "2024-02-01", c.StartDate.Format("2006-01-02"))
	require.NotNil(t, c.Note)
	assert.Equal(t, "light", *c.Note)
	assert.Nil(t, c.EndDate)
}

func TestAdminAssignsCycleToTargetUser(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	admin := seedUser(t, db, "admin@example.com", "admin")
	target := seedUser(t, db, "target@example.com", "user")

	c := createCycle(t, h, map[string]interface{}{
		"startDate": "2024-02-01",
		"userId":    target,
	}, asAdmin(admin))
	assert.Equal(t, target, c.UserID)
}

func TestAdminAssignToMissingUserNotFound(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	admin := seedUser(t, db, "admin@example.com", "admin")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/cycles", map[string]interface{}{
		"startDate": "2024-02-01",
		"userId":    9999,
	}, asAdmin(admin))
	h.CreateCycle(context.Background(), rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestNonAdminCannotAssignCycleToAnotherUser(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")
	other := seedUser(t, db, "other@example.com", "user")

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/cycles", map[string]interface{}{
		"startDate": "2024-02-01",
		"userId":    other,
	}, asUser(owner))
	h.CreateCycle(context.Background(), rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestCycleStatsAdminOnly(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")
	admin := seedUser(t, db, "admin@example.com", "admin")

	createCycle(t, h, map[string]interface{}{"startDate": "2024-02-01"}, asUser(owner))
	createCycle(t, h, map[string]interface{}{"startDate": "2024-03-01"}, asUser(owner))

	rec := httptest.NewRecorder()
	h.GetCycleStats(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles/stats", nil, asUser(owner)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.GetCycleStats(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles/stats", nil, asAdmin(admin)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats models.CycleStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalCycles)
	require.Len(t, stats.CycleCountsByUser, 1)
	assert.Equal(t, owner, stats.CycleCountsByUser[0].UserID)
	assert.Equal(t, 2, stats.CycleCountsByUser[0].Count)
}

func TestDeleteCycleTwice(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	c := createCycle(t, h, map[string]interface{}{"startDate": "2024-02-01"}, asUser(owner))
	id := fmt.Sprint(c.ID)

	rec := httptest.NewRecorder()
	h.DeleteCycle(context.Background(), rec, withPathID(authedRequest(t, http.MethodDelete, "/cycles/"+id, nil, asUser(owner)), id))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteCycle(context.Background(), rec, withPathID(authedRequest(t, http.MethodDelete, "/cycles/"+id, nil, asUser(owner)), id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchCyclesScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")
	other := seedUser(t, db, "other@example.com", "user")

	createCycle(t, h, map[string]interface{}{"startDate": "2024-02-01", "note": "Heavy flow"}, asUser(owner))
	createCycle(t, h, map[string]interface{}{"startDate": "2024-02-01", "note": "heavy day"}, asUser(other))

	rec := httptest.NewRecorder()
	h.SearchCycles(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles/search?noteKeyword=HEAVY", nil, asUser(owner)))
	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.Cycle
	decodeBody(t, rec, &results)
	require.Len(t, results, 1)
	assert.Equal(t, owner, results[0].UserID)

	// admin search spans all owners
	admin := seedUser(t, db, "admin@example.com", "admin")
	rec = httptest.NewRecorder()
	h.SearchCycles(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles/search?noteKeyword=heavy", nil, asAdmin(admin)))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &results)
	assert.Len(t, results, 2)

	rec = httptest.NewRecorder()
	h.SearchCycles(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles/search?startDate=nope", nil, asUser(owner)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCycleClearsNullableFields(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")

	c := createCycle(t, h, map[string]interface{}{
		"startDate": "2024-02-01",
		"endDate":   "2024-02-06",
		"note":      "spotting",
	}, asUser(owner))
	id := fmt.Sprint(c.ID)

	rec := httptest.NewRecorder()
	req := withPathID(authedRequest(t, http.MethodPut, "/cycles/"+id, map[string]interface{}{
		"endDate": nil,
		"note":    nil,
	}, asUser(owner)), id)
	h.UpdateCycle(context.Background(), rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Cycle
	decodeBody(t, rec, &updated)
	assert.Nil(t, updated.EndDate)
	assert.Nil(t, updated.Note)
	assert.Equal(t, "2024-02-01", updated.StartDate.Format("2006-01-02"))
}

func TestListCyclesScoped(t *testing.T) {
	db := newTestDB(t)
	h := NewCycleHandler(db, newTestCache(t), testAuth)
	owner := seedUser(t, db, "owner@example.com", "user")
	other := seedUser(t, db, "other@example.com", "user")
	admin := seedUser(t, db, "admin@example.com", "admin")

	createCycle(t, h, map[string]interface{}{"startDate": "2024-02-01"}, asUser(owner))
	createCycle(t, h, map[string]interface{}{"startDate": "2024-03-01"}, asUser(other))

	rec := httptest.NewRecorder()
	h.GetCycles(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles", nil, asUser(owner)))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Cycle
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, owner, list[0].UserID)

	rec = httptest.NewRecorder()
	h.GetCycles(context.Background(), rec, authedRequest(t, http.MethodGet, "/cycles", nil, asAdmin(admin)))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.Len(t, list, 2)
}

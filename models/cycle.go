package models

import "time"

// Cycle is one tracked menstrual cycle. EndDate and Note are nullable.
type Cycle struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"userId" db:"user_id"`
	StartDate time.Time  `json:"startDate" db:"start_date"`
	EndDate   *time.Time `json:"endDate" db:"end_date"`
	Note      *string    `json:"note" db:"note"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateCycleRequest creates a cycle for the requester, or for UserID when
// the requester is an admin targeting another user.
type CreateCycleRequest struct {
	StartDate string  `json:"startDate" validate:"required"`
	EndDate   *string `json:"endDate"`
	Note      *string `json:"note"`
	UserID    *int    `json:"userId"`
}

// UpdateCycleRequest is a partial update; endDate and note accept explicit
// null to clear the stored value.
type UpdateCycleRequest struct {
	StartDate *string        `json:"startDate"`
	EndDate   OptionalString `json:"endDate"`
	Note      OptionalString `json:"note"`
}

// CycleCount is one row of the grouped-by-owner aggregate.
type CycleCount struct {
	UserID int `json:"userId" db:"user_id"`
	Count  int `json:"count" db:"count"`
}

// CycleStats is the admin-only statistics payload.
type CycleStats struct {
	TotalCycles       int          `json:"totalCycles"`
	CycleCountsByUser []CycleCount `json:"cycleCountsByUser"`
}

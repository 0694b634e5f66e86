package models

import "time"

// Symptom is one daily mood/symptom log entry.
type Symptom struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	Date      time.Time `json:"date" db:"date"`
	Mood      string    `json:"mood" db:"mood"`
	Symptoms  string    `json:"symptoms" db:"symptoms"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateSymptomRequest requires all three fields; mood and symptoms are
// stored trimmed.
type CreateSymptomRequest struct {
	Date     string `json:"date" validate:"required"`
	Mood     string `json:"mood" validate:"required"`
	Symptoms string `json:"symptoms" validate:"required"`
}

// UpdateSymptomRequest is a partial update; none of the fields are nullable.
type UpdateSymptomRequest struct {
	Date     *string        `json:"date"`
	Mood     OptionalString `json:"mood"`
	Symptoms OptionalString `json:"symptoms"`
}

package models

import "time"

// Reminder is a stored reminder flag; nothing in this service fires it.
type Reminder struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	RemindAt    time.Time `json:"remindAt" db:"remind_at"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateReminderRequest; isActive defaults to true on creation.
type CreateReminderRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	RemindAt    string  `json:"remindAt" validate:"required"`
}

// UpdateReminderRequest is a partial update; description accepts explicit
// null, isActive must be a genuine boolean.
type UpdateReminderRequest struct {
	Title       OptionalString `json:"title"`
	Description OptionalString `json:"description"`
	RemindAt    *string        `json:"remindAt"`
	IsActive    OptionalBool   `json:"isActive"`
}

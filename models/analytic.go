package models

import "time"

// Analytic is a derived per-user summary over a period.
type Analytic struct {
	ID             int       `json:"id" db:"id"`
	UserID         int       `json:"userId" db:"user_id"`
	PeriodStart    time.Time `json:"periodStart" db:"period_start"`
	PeriodEnd      time.Time `json:"periodEnd" db:"period_end"`
	AverageCycle   *float64  `json:"averageCycle" db:"average_cycle"`
	SymptomSummary *string   `json:"symptomSummary" db:"symptom_summary"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateAnalyticRequest; the owner is always the creator.
type CreateAnalyticRequest struct {
	PeriodStart    string   `json:"periodStart" validate:"required"`
	PeriodEnd      string   `json:"periodEnd" validate:"required"`
	AverageCycle   *float64 `json:"averageCycle"`
	SymptomSummary *string  `json:"symptomSummary"`
}

// UpdateAnalyticRequest is a partial update; averageCycle and symptomSummary
// accept explicit null.
type UpdateAnalyticRequest struct {
	PeriodStart    *string        `json:"periodStart"`
	PeriodEnd      *string        `json:"periodEnd"`
	AverageCycle   OptionalFloat  `json:"averageCycle"`
	SymptomSummary OptionalString `json:"symptomSummary"`
}

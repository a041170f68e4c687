package db

import (
	"time"
)

// Delivery is one dispatched job's recorded outcome. Records are append
// only; a delivery is never re-run from here.
type Delivery struct {
	ID          int64     `json:"id"`
	JobID       string    `json:"job_id"`
	Mode        string    `json:"mode"`
	Target      string    `json:"target,omitempty"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Webhook struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Secret     string    `json:"secret,omitempty"`
	EventsJSON string    `json:"events_json"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

type DeliveryFilter struct {
	Mode    string
	Success *bool
	Limit   int
	Offset  int
}

package audit

import "time"

// ActivityEntry is one row of the user-visible activity trail
type ActivityEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id,omitempty"`
	EventType   string    `json:"event_type"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccessEntry records one HTTP request
type AccessEntry struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	RequestMethod  string    `json:"request_method"`
	RequestPath    string    `json:"request_path"`
	ResponseStatus int       `json:"response_status"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrorEntry records one handled failure
type ErrorEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id,omitempty"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	RequestPath  string    `json:"request_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

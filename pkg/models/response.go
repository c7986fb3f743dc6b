package models

import "time"

// SyncSummary is the outcome of one sync run.
type SyncSummary struct {
	Imported int `json:"imported"`
	Removed  int `json:"removed"`
	Failed   int `json:"failed"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncAcceptedResponse is returned when a sync run is queued for
// background processing.
type SyncAcceptedResponse struct {
	ProcessID string    `json:"processId"`
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

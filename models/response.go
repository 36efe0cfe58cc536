package models

// SubmitTaskResponse is returned by POST /api/v1/tasks. Execution proceeds
// out-of-band; the caller polls the task by ID.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// RegisterClientResponse is returned by POST /api/v1/clients.
type RegisterClientResponse struct {
	ClientID string `json:"client_id"`
}

// ErrorResponse is the envelope for all error replies.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// PoolStats is a snapshot of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Workers       int    `json:"workers"`
	ActivePages   int    `json:"active_pages"`
	MaxPages      int    `json:"max_pages"`
}

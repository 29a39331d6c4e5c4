package models

// RequestLog stores relayed request/response records for monitoring
type RequestLog struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Timestamp int64  `gorm:"index" json:"timestamp"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Upstream  string `json:"upstream,omitempty"`
	Status    int    `json:"status"`
	Duration  int64  `json:"duration"` // milliseconds
	Error     string `json:"error,omitempty"`
	BodySize  int64  `json:"body_size,omitempty"`
}

// RequestStats holds aggregated statistics for request logs
type RequestStats struct {
	TotalRequests int64 `json:"total_requests"`
	SuccessCount  int64 `json:"success_count"`
	ErrorCount    int64 `json:"error_count"`
}

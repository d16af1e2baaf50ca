package tracking

type PushUsageRequest struct {
	App       string `json:"app" binding:"required"`
	Duration  int64  `json:"duration" binding:"required,gt=0"`
	Timestamp string `json:"timestamp" binding:"required"`
}

type PushIdleRequest struct {
	Seconds int64 `json:"seconds" binding:"required,gt=0"`
}

type StartResponse struct {
	SessionID   string `json:"session_id"`
	WorkDate    string `json:"work_date"`
	StartTime   string `json:"start_time"`
	Reactivated bool   `json:"reactivated"`
}

type SyncResponse struct {
	Synced   int `json:"synced"`
	Rejected int `json:"rejected"`
}

// StopResponse reports both the wall-clock total and the sum of drained usage
// durations; the two can diverge and callers are expected to see that rather
// than have it reconciled silently.
type StopResponse struct {
	SessionID    string `json:"session_id"`
	WorkDate     string `json:"work_date"`
	TotalSeconds int64  `json:"total_seconds"`
	IdleSeconds  int64  `json:"idle_seconds"`
	UsageSeconds int64  `json:"usage_seconds"`
	Synced       int    `json:"synced"`
	Rejected     int    `json:"rejected"`
}

type SessionResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	WorkDate     string          `json:"work_date"`
	StartTime    string          `json:"start_time"`
	EndTime      *string         `json:"end_time,omitempty"`
	Status       string          `json:"status"`
	TotalSeconds int64           `json:"total_seconds"`
	IdleSeconds  int64           `json:"idle_seconds"`
	Usages       []UsageResponse `json:"usages"`
}

type UsageResponse struct {
	ID        string `json:"id"`
	App       string `json:"app"`
	Duration  int64  `json:"duration"`
	Timestamp string `json:"timestamp"`
}

type TimesheetResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

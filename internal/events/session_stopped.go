package events

import "time"

const SessionStoppedTopic = "tracker.session.lifecycle.v1"

type SessionStoppedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	SessionID    string    `json:"session_id"`
	EmployeeID   string    `json:"employee_id"`
	WorkDate     string    `json:"work_date"`
	TotalSeconds int64     `json:"total_seconds"`
	IdleSeconds  int64     `json:"idle_seconds"`
	OccurredAt   time.Time `json:"occurred_at"`
}

package tracking

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// TrackingSession is the per-employee, per-calendar-day record of when
// activity tracking was running. At most one ACTIVE row may exist per
// (employee, work date); the partial unique index backs that invariant.
type TrackingSession struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID   uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_tracking_sessions_employee_date"`
	WorkDate     time.Time  `gorm:"column:work_date;type:date;not null;uniqueIndex:uq_tracking_sessions_employee_date"`
	StartTime    time.Time  `gorm:"column:start_time;type:timestamptz;not null"`
	EndTime      *time.Time `gorm:"column:end_time;type:timestamptz"`
	Status       string     `gorm:"column:status;type:varchar(20);not null;default:INACTIVE;index"`
	TotalSeconds int64      `gorm:"column:total_seconds;not null;default:0"`
	IdleSeconds  int64      `gorm:"column:idle_seconds;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (TrackingSession) TableName() string {
	return "tracking_sessions"
}

// UsageEvent is one durable app-usage observation. Rows only exist after a
// drain; the session id is stamped at drain time, not at enqueue time.
type UsageEvent struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"column:employee_id;type:uuid;not null;index"`
	SessionID  uuid.UUID `gorm:"column:session_id;type:uuid;not null;index"`
	App        string    `gorm:"column:app;type:varchar(200);not null"`
	Duration   int64     `gorm:"column:duration;not null"`
	Timestamp  time.Time `gorm:"column:timestamp;type:timestamptz;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (UsageEvent) TableName() string {
	return "usage_events"
}

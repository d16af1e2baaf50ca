package stats

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AttendanceNotMarked is the sentinel shown when no attendance row exists for
// the day; the aggregator never writes an empty status.
const AttendanceNotMarked = "not_marked"

// AppUsage is one entry of the per-app breakdown, ordered by duration
// descending inside AppBreakdown.
type AppUsage struct {
	App        string  `json:"app"`
	Duration   int64   `json:"duration"`
	Percentage float64 `json:"percentage"`
	Hours      float64 `json:"hours"`
}

// AppBreakdown is stored as a jsonb column.
type AppBreakdown []AppUsage

func (b AppBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *AppBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = AppBreakdown{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return errors.New("unsupported type for AppBreakdown")
	}
}

// DailyStats is the materialized per-employee-per-day read model. It is
// written only by the aggregator, always as a full recompute, never patched
// incrementally.
type DailyStats struct {
	ID                  uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID          uuid.UUID    `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_daily_stats_employee_date"`
	StatsDate           time.Time    `gorm:"column:stats_date;type:date;not null;uniqueIndex:uq_daily_stats_employee_date"`
	TotalHours          float64      `gorm:"column:total_hours;not null;default:0"`
	IdleHours           float64      `gorm:"column:idle_hours;not null;default:0"`
	IdlePercentage      float64      `gorm:"column:idle_percentage;not null;default:0"`
	AppsUsed            AppBreakdown `gorm:"column:apps_used;type:jsonb;not null;default:'[]'"`
	AttendanceStatus    string       `gorm:"column:attendance_status;type:varchar(20);not null;default:not_marked"`
	PendingApplications int64        `gorm:"column:pending_applications;not null;default:0"`
	CalculatedAt        time.Time    `gorm:"column:calculated_at;type:timestamptz;not null"`
	UpdatedAt           time.Time    `gorm:"column:updated_at"`
}

func (DailyStats) TableName() string {
	return "daily_stats"
}

// WeeklyStats is the rolling 7-day summary, one row per (employee, week
// start), recomputed from daily rows by the daily scheduler run.
type WeeklyStats struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID     uuid.UUID    `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_weekly_stats_employee_week"`
	WeekStart      time.Time    `gorm:"column:week_start;type:date;not null;uniqueIndex:uq_weekly_stats_employee_week"`
	WeekEnd        time.Time    `gorm:"column:week_end;type:date;not null"`
	TotalHours     float64      `gorm:"column:total_hours;not null;default:0"`
	IdleHours      float64      `gorm:"column:idle_hours;not null;default:0"`
	IdlePercentage float64      `gorm:"column:idle_percentage;not null;default:0"`
	AppsUsed       AppBreakdown `gorm:"column:apps_used;type:jsonb;not null;default:'[]'"`
	DaysWorked     int          `gorm:"column:days_worked;not null;default:0"`
	CalculatedAt   time.Time    `gorm:"column:calculated_at;type:timestamptz;not null"`
	UpdatedAt      time.Time    `gorm:"column:updated_at"`
}

func (WeeklyStats) TableName() string {
	return "weekly_stats"
}

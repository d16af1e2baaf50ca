package stats

import (
	"context"
	"database/sql"
	"time"

	"github.com/coding-cat0-0/tracker/internal/shared/connection"

	"gorm.io/gorm"
)

// AppDurationRow is one group-by-app aggregate read from usage_events.
type AppDurationRow struct {
	App      string
	Duration int64
}

//go:generate mockgen -source=stats_repo.go -destination=mock/stats_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	UpsertDaily(ctx context.Context, row *DailyStats) error
	FindDaily(ctx context.Context, employeeID string, date time.Time) (*DailyStats, error)
	FindDailyRange(ctx context.Context, employeeID string, from, to time.Time) ([]DailyStats, error)
	FindDailyByDate(ctx context.Context, date time.Time) ([]DailyStats, error)
	UpsertWeekly(ctx context.Context, row *WeeklyStats) error
	FindWeekly(ctx context.Context, employeeID string, weekStart time.Time) (*WeeklyStats, error)
	FindLatestWeekly(ctx context.Context, employeeID string) (*WeeklyStats, error)
	SumUsageByApp(ctx context.Context, employeeID string, date time.Time) ([]AppDurationRow, error)
	SumIdleSeconds(ctx context.Context, employeeID string, date time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	txDB, err := connection.GORMOverTx(tx)
	if err != nil {
		return r
	}
	return &repository{db: txDB}
}

// UpsertDaily is an atomic insert-or-overwrite keyed by (employee, date).
// Raw SQL so the conflict branch rewrites every derived field in one
// statement.
func (r *repository) UpsertDaily(ctx context.Context, row *DailyStats) error {
	apps, err := row.AppsUsed.Value()
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Exec(`
		INSERT INTO daily_stats (
			id, employee_id, stats_date, total_hours, idle_hours,
			idle_percentage, apps_used, attendance_status,
			pending_applications, calculated_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (employee_id, stats_date) DO UPDATE SET
			total_hours = EXCLUDED.total_hours,
			idle_hours = EXCLUDED.idle_hours,
			idle_percentage = EXCLUDED.idle_percentage,
			apps_used = EXCLUDED.apps_used,
			attendance_status = EXCLUDED.attendance_status,
			pending_applications = EXCLUDED.pending_applications,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = now()
	`,
		row.ID, row.EmployeeID, row.StatsDate.Format("2006-01-02"),
		row.TotalHours, row.IdleHours, row.IdlePercentage, apps,
		row.AttendanceStatus, row.PendingApplications, row.CalculatedAt,
	).Error
}

func (r *repository) FindDaily(ctx context.Context, employeeID string, date time.Time) (*DailyStats, error) {
	var row DailyStats
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("stats_date = ?", date.Format("2006-01-02")).
		First(&row).Error
	return &row, err
}

func (r *repository) FindDailyRange(ctx context.Context, employeeID string, from, to time.Time) ([]DailyStats, error) {
	var rows []DailyStats
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("stats_date >= ?", from.Format("2006-01-02")).
		Where("stats_date <= ?", to.Format("2006-01-02")).
		Order("stats_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindDailyByDate(ctx context.Context, date time.Time) ([]DailyStats, error) {
	var rows []DailyStats
	err := r.db.WithContext(ctx).
		Where("stats_date = ?", date.Format("2006-01-02")).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpsertWeekly(ctx context.Context, row *WeeklyStats) error {
	apps, err := row.AppsUsed.Value()
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Exec(`
		INSERT INTO weekly_stats (
			id, employee_id, week_start, week_end, total_hours, idle_hours,
			idle_percentage, apps_used, days_worked, calculated_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (employee_id, week_start) DO UPDATE SET
			week_end = EXCLUDED.week_end,
			total_hours = EXCLUDED.total_hours,
			idle_hours = EXCLUDED.idle_hours,
			idle_percentage = EXCLUDED.idle_percentage,
			apps_used = EXCLUDED.apps_used,
			days_worked = EXCLUDED.days_worked,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = now()
	`,
		row.ID, row.EmployeeID, row.WeekStart.Format("2006-01-02"),
		row.WeekEnd.Format("2006-01-02"), row.TotalHours, row.IdleHours,
		row.IdlePercentage, apps, row.DaysWorked, row.CalculatedAt,
	).Error
}

func (r *repository) FindWeekly(ctx context.Context, employeeID string, weekStart time.Time) (*WeeklyStats, error) {
	var row WeeklyStats
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("week_start = ?", weekStart.Format("2006-01-02")).
		First(&row).Error
	return &row, err
}

func (r *repository) FindLatestWeekly(ctx context.Context, employeeID string) (*WeeklyStats, error) {
	var row WeeklyStats
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("week_start DESC").
		First(&row).Error
	return &row, err
}

func (r *repository) SumUsageByApp(ctx context.Context, employeeID string, date time.Time) ([]AppDurationRow, error) {
	var rows []AppDurationRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.app AS app, COALESCE(SUM(u.duration), 0) AS duration
		FROM usage_events u
		JOIN tracking_sessions s ON s.id = u.session_id
		WHERE u.employee_id = ? AND s.work_date = ?
		GROUP BY u.app
		ORDER BY duration DESC
	`, employeeID, date.Format("2006-01-02")).Scan(&rows).Error
	return rows, err
}

func (r *repository) SumIdleSeconds(ctx context.Context, employeeID string, date time.Time) (int64, error) {
	var idle int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(idle_seconds), 0)
		FROM tracking_sessions
		WHERE employee_id = ? AND work_date = ?
	`, employeeID, date.Format("2006-01-02")).Scan(&idle).Error
	return idle, err
}

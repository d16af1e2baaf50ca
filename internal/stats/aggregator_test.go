package stats_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/leave"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka"
	"github.com/coding-cat0-0/tracker/internal/stats"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeStatsRepository struct {
	daily  map[string]stats.DailyStats
	weekly map[string]stats.WeeklyStats

	sumUsageByAppFn  func(ctx context.Context, employeeID string, date time.Time) ([]stats.AppDurationRow, error)
	sumIdleSecondsFn func(ctx context.Context, employeeID string, date time.Time) (int64, error)
	findDailyRangeFn func(ctx context.Context, employeeID string, from, to time.Time) ([]stats.DailyStats, error)
}

func newFakeStatsRepository() *fakeStatsRepository {
	return &fakeStatsRepository{
		daily:  map[string]stats.DailyStats{},
		weekly: map[string]stats.WeeklyStats{},
	}
}

func dailyKey(employeeID string, date time.Time) string {
	return employeeID + ":" + date.Format("2006-01-02")
}

func (f *fakeStatsRepository) WithTx(tx *sql.Tx) stats.Repository { return f }

func (f *fakeStatsRepository) UpsertDaily(ctx context.Context, row *stats.DailyStats) error {
	f.daily[dailyKey(row.EmployeeID.String(), row.StatsDate)] = *row
	return nil
}

func (f *fakeStatsRepository) FindDaily(ctx context.Context, employeeID string, date time.Time) (*stats.DailyStats, error) {
	row, ok := f.daily[dailyKey(employeeID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f *fakeStatsRepository) FindDailyRange(ctx context.Context, employeeID string, from, to time.Time) ([]stats.DailyStats, error) {
	if f.findDailyRangeFn != nil {
		return f.findDailyRangeFn(ctx, employeeID, from, to)
	}
	var rows []stats.DailyStats
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		if row, ok := f.daily[dailyKey(employeeID, d)]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeStatsRepository) FindDailyByDate(ctx context.Context, date time.Time) ([]stats.DailyStats, error) {
	var rows []stats.DailyStats
	for _, row := range f.daily {
		if row.StatsDate.Format("2006-01-02") == date.Format("2006-01-02") {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeStatsRepository) UpsertWeekly(ctx context.Context, row *stats.WeeklyStats) error {
	f.weekly[dailyKey(row.EmployeeID.String(), row.WeekStart)] = *row
	return nil
}

func (f *fakeStatsRepository) FindWeekly(ctx context.Context, employeeID string, weekStart time.Time) (*stats.WeeklyStats, error) {
	row, ok := f.weekly[dailyKey(employeeID, weekStart)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f *fakeStatsRepository) FindLatestWeekly(ctx context.Context, employeeID string) (*stats.WeeklyStats, error) {
	var latest *stats.WeeklyStats
	for _, row := range f.weekly {
		if row.EmployeeID.String() != employeeID {
			continue
		}
		if latest == nil || row.WeekStart.After(latest.WeekStart) {
			r := row
			latest = &r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeStatsRepository) SumUsageByApp(ctx context.Context, employeeID string, date time.Time) ([]stats.AppDurationRow, error) {
	if f.sumUsageByAppFn != nil {
		return f.sumUsageByAppFn(ctx, employeeID, date)
	}
	return nil, nil
}

func (f *fakeStatsRepository) SumIdleSeconds(ctx context.Context, employeeID string, date time.Time) (int64, error) {
	if f.sumIdleSecondsFn != nil {
		return f.sumIdleSecondsFn(ctx, employeeID, date)
	}
	return 0, nil
}

type fakeEmployeeRepository struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID.String() == id {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) FindAllByRole(ctx context.Context, role string) ([]employee.Employee, error) {
	return f.employees, nil
}

type fakeAttendanceRepository struct {
	findByEmployeeAndDateFn func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error)
}

func (f *fakeAttendanceRepository) WithTx(tx *sql.Tx) attendance.Repository { return f }

func (f *fakeAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	return nil
}

func (f *fakeAttendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	if f.findByEmployeeAndDateFn != nil {
		return f.findByEmployeeAndDateFn(ctx, employeeID, date)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]attendance.Attendance, error) {
	return nil, nil
}

type fakeLeaveRepository struct {
	pendingCount int64
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveApplication) error {
	return nil
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, employeeID, status string) ([]leave.LeaveApplication, error) {
	return nil, nil
}

func (f *fakeLeaveRepository) FindByIDAndEmployee(ctx context.Context, employeeID, id string) (*leave.LeaveApplication, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) Delete(ctx context.Context, employeeID, id string) error { return nil }

func (f *fakeLeaveRepository) CountPendingByEmployee(ctx context.Context, employeeID string) (int64, error) {
	return f.pendingCount, nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type aggregatorDeps struct {
	db             *sql.DB
	sqlMock        sqlmock.Sqlmock
	repo           *fakeStatsRepository
	employeeRepo   *fakeEmployeeRepository
	attendanceRepo *fakeAttendanceRepository
	leaveRepo      *fakeLeaveRepository
	outbox         *fakeOutboxRepository
	aggregator     *stats.Aggregator
}

func setupAggregatorTest(t *testing.T, withOutbox bool) *aggregatorDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	deps := &aggregatorDeps{
		db:             db,
		sqlMock:        sqlMock,
		repo:           newFakeStatsRepository(),
		employeeRepo:   &fakeEmployeeRepository{},
		attendanceRepo: &fakeAttendanceRepository{},
		leaveRepo:      &fakeLeaveRepository{},
	}

	var outboxRepo kafka.OutboxRepository
	if withOutbox {
		deps.outbox = &fakeOutboxRepository{}
		outboxRepo = deps.outbox
	}
	deps.aggregator = stats.NewAggregator(
		db, deps.repo, deps.employeeRepo, deps.attendanceRepo, deps.leaveRepo, outboxRepo,
	)
	return deps
}

func TestAggregator_RecomputeEmployee(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("hours and idle percentage derive from summed usage durations", func(t *testing.T) {
		deps := setupAggregatorTest(t, false)
		defer deps.db.Close()

		deps.repo.sumUsageByAppFn = func(ctx context.Context, eid string, d time.Time) ([]stats.AppDurationRow, error) {
			return []stats.AppDurationRow{{App: "editor", Duration: 3600}}, nil
		}
		deps.repo.sumIdleSecondsFn = func(ctx context.Context, eid string, d time.Time) (int64, error) {
			return 900, nil
		}

		row, err := deps.aggregator.RecomputeEmployee(ctx, employeeID, date)

		assert.NoError(t, err)
		assert.InDelta(t, 1.0, row.TotalHours, 0.001)
		assert.InDelta(t, 0.25, row.IdleHours, 0.001)
		assert.InDelta(t, 25.0, row.IdlePercentage, 0.001)
	})

	t.Run("derives breakdown, attendance and pending count", func(t *testing.T) {
		deps := setupAggregatorTest(t, false)
		defer deps.db.Close()

		deps.repo.sumUsageByAppFn = func(ctx context.Context, eid string, d time.Time) ([]stats.AppDurationRow, error) {
			return []stats.AppDurationRow{
				{App: "editor", Duration: 3600},
				{App: "browser", Duration: 900},
			}, nil
		}
		deps.repo.sumIdleSecondsFn = func(ctx context.Context, eid string, d time.Time) (int64, error) {
			return 1500, nil
		}
		deps.attendanceRepo.findByEmployeeAndDateFn = func(ctx context.Context, eid string, d time.Time) (*attendance.Attendance, error) {
			return &attendance.Attendance{Status: attendance.StatusPresent}, nil
		}
		deps.leaveRepo.pendingCount = 2

		row, err := deps.aggregator.RecomputeEmployee(ctx, employeeID, date)

		assert.NoError(t, err)
		assert.InDelta(t, 1.25, row.TotalHours, 0.001)
		assert.InDelta(t, 0.42, row.IdleHours, 0.001)
		assert.InDelta(t, 33.33, row.IdlePercentage, 0.001)
		assert.Equal(t, attendance.StatusPresent, row.AttendanceStatus)
		assert.Equal(t, int64(2), row.PendingApplications)

		assert.Len(t, row.AppsUsed, 2)
		assert.Equal(t, "editor", row.AppsUsed[0].App)
		assert.InDelta(t, 80.0, row.AppsUsed[0].Percentage, 0.001)
		assert.InDelta(t, 1.0, row.AppsUsed[0].Hours, 0.001)
		assert.Equal(t, "browser", row.AppsUsed[1].App)
		assert.InDelta(t, 20.0, row.AppsUsed[1].Percentage, 0.001)
		assert.InDelta(t, 0.25, row.AppsUsed[1].Hours, 0.001)

		stored, ok := deps.repo.daily[dailyKey(employeeID.String(), date)]
		assert.True(t, ok)
		assert.Equal(t, row.TotalHours, stored.TotalHours)
	})

	t.Run("empty day yields zeroed row with sentinel attendance", func(t *testing.T) {
		deps := setupAggregatorTest(t, false)
		defer deps.db.Close()

		row, err := deps.aggregator.RecomputeEmployee(ctx, employeeID, date)

		assert.NoError(t, err)
		assert.Zero(t, row.TotalHours)
		assert.Zero(t, row.IdlePercentage)
		assert.Empty(t, row.AppsUsed)
		assert.Equal(t, stats.AttendanceNotMarked, row.AttendanceStatus)
	})

	t.Run("rerun without new events is idempotent", func(t *testing.T) {
		deps := setupAggregatorTest(t, false)
		defer deps.db.Close()

		deps.repo.sumUsageByAppFn = func(ctx context.Context, eid string, d time.Time) ([]stats.AppDurationRow, error) {
			return []stats.AppDurationRow{{App: "editor", Duration: 1800}}, nil
		}
		deps.repo.sumIdleSecondsFn = func(ctx context.Context, eid string, d time.Time) (int64, error) {
			return 0, nil
		}

		first, err := deps.aggregator.RecomputeEmployee(ctx, employeeID, date)
		assert.NoError(t, err)
		second, err := deps.aggregator.RecomputeEmployee(ctx, employeeID, date)
		assert.NoError(t, err)

		assert.Equal(t, first.TotalHours, second.TotalHours)
		assert.Equal(t, first.IdlePercentage, second.IdlePercentage)
		assert.Equal(t, first.AppsUsed, second.AppsUsed)
	})
}

func TestAggregator_RunDaily(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("one failure does not abort the batch", func(t *testing.T) {
		deps := setupAggregatorTest(t, false)
		defer deps.db.Close()

		healthy := employee.Employee{ID: uuid.New(), FullName: "Alice", Role: employee.RoleEmployee}
		broken := employee.Employee{ID: uuid.New(), FullName: "Bob", Role: employee.RoleEmployee}
		deps.employeeRepo.employees = []employee.Employee{healthy, broken}

		deps.repo.sumUsageByAppFn = func(ctx context.Context, eid string, d time.Time) ([]stats.AppDurationRow, error) {
			if eid == broken.ID.String() {
				return nil, errors.New("query timeout")
			}
			return []stats.AppDurationRow{{App: "editor", Duration: 600}}, nil
		}

		report, err := deps.aggregator.RunDaily(ctx, date)

		assert.NoError(t, err)
		assert.Equal(t, 2, report.Employees)
		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, 1, report.Failed)
		assert.Len(t, report.Results, 2)
		assert.Empty(t, report.Results[0].Error)
		assert.Contains(t, report.Results[1].Error, "query timeout")
	})

	t.Run("publishes a run event through the outbox", func(t *testing.T) {
		deps := setupAggregatorTest(t, true)
		defer deps.db.Close()

		deps.employeeRepo.employees = []employee.Employee{
			{ID: uuid.New(), FullName: "Alice", Role: employee.RoleEmployee},
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		report, err := deps.aggregator.RunDaily(ctx, date)

		assert.NoError(t, err)
		assert.Equal(t, 1, report.Succeeded)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "stats_recalculated", deps.outbox.created[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestAggregator_RunWeekly(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	end := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	deps := setupAggregatorTest(t, false)
	defer deps.db.Close()

	deps.employeeRepo.employees = []employee.Employee{
		{ID: employeeID, FullName: "Alice", Role: employee.RoleEmployee},
	}
	deps.repo.daily[dailyKey(employeeID.String(), end)] = stats.DailyStats{
		EmployeeID: employeeID,
		StatsDate:  end,
		TotalHours: 8,
		IdleHours:  1,
		AppsUsed:   stats.AppBreakdown{{App: "editor", Duration: 21600}, {App: "browser", Duration: 7200}},
	}
	deps.repo.daily[dailyKey(employeeID.String(), end.AddDate(0, 0, -1))] = stats.DailyStats{
		EmployeeID: employeeID,
		StatsDate:  end.AddDate(0, 0, -1),
		TotalHours: 4,
		IdleHours:  0.5,
		AppsUsed:   stats.AppBreakdown{{App: "editor", Duration: 14400}},
	}
	deps.repo.daily[dailyKey(employeeID.String(), end.AddDate(0, 0, -2))] = stats.DailyStats{
		EmployeeID: employeeID,
		StatsDate:  end.AddDate(0, 0, -2),
		TotalHours: 0,
		IdleHours:  0,
	}

	report, err := deps.aggregator.RunWeekly(ctx, end)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	weekStart := end.AddDate(0, 0, -6)
	row, ok := deps.repo.weekly[dailyKey(employeeID.String(), weekStart)]
	assert.True(t, ok)
	assert.InDelta(t, 12.0, row.TotalHours, 0.001)
	assert.InDelta(t, 1.5, row.IdleHours, 0.001)
	assert.InDelta(t, 12.5, row.IdlePercentage, 0.001)
	assert.Equal(t, 2, row.DaysWorked)
	assert.Equal(t, "editor", row.AppsUsed[0].App)
	assert.Equal(t, int64(36000), row.AppsUsed[0].Duration)
}

package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/events"
	"github.com/coding-cat0-0/tracker/internal/leave"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka"
	"github.com/coding-cat0-0/tracker/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmployeeResult is the outcome of one employee's recompute within a run.
type EmployeeResult struct {
	EmployeeID string  `json:"employee_id"`
	TotalHours float64 `json:"total_hours"`
	Error      string  `json:"error,omitempty"`
}

// RunReport summarizes one scheduler run. A single employee failing is
// recorded here and does not abort the rest of the batch; RunDaily itself
// errors only when the employee listing cannot be read at all.
type RunReport struct {
	StatsDate string           `json:"stats_date"`
	Employees int              `json:"employees"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []EmployeeResult `json:"results"`
	RanAt     time.Time        `json:"ran_at"`
}

// Aggregator owns DailyStats and WeeklyStats: every row is a full recompute
// from durable sessions, usage events, attendance and leave records. Events
// still sitting in the transient buffer are invisible to a run and are picked
// up by the next one.
type Aggregator struct {
	db             *sql.DB
	repo           Repository
	employeeRepo   employee.Repository
	attendanceRepo attendance.Repository
	leaveRepo      leave.Repository
	outbox         kafka.OutboxRepository
	logger         *zap.Logger
}

func NewAggregator(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	attendanceRepo attendance.Repository,
	leaveRepo leave.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) *Aggregator {
	l := zap.L().Named("stats.aggregator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("stats.aggregator")
	}
	return &Aggregator{
		db:             db,
		repo:           repo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		leaveRepo:      leaveRepo,
		outbox:         outboxRepo,
		logger:         l,
	}
}

// RunDaily recomputes and upserts the DailyStats row of every tracked
// employee for the given date.
func (a *Aggregator) RunDaily(ctx context.Context, date time.Time) (RunReport, error) {
	report := RunReport{
		StatsDate: date.Format("2006-01-02"),
		RanAt:     time.Now().UTC(),
	}

	emps, err := a.employeeRepo.FindAllByRole(ctx, employee.RoleEmployee)
	if err != nil {
		a.logger.Error("daily stats run aborted, employee listing failed", zap.Error(err))
		return report, err
	}

	report.Employees = len(emps)
	report.Results = make([]EmployeeResult, 0, len(emps))

	for _, emp := range emps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row, err := a.RecomputeEmployee(ctx, emp.ID, date)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, EmployeeResult{
				EmployeeID: emp.ID.String(),
				Error:      err.Error(),
			})
			a.logger.Error("daily stats recompute failed",
				zap.String("employee_id", emp.ID.String()),
				zap.String("stats_date", report.StatsDate),
				zap.Error(err),
			)
			continue
		}

		report.Succeeded++
		report.Results = append(report.Results, EmployeeResult{
			EmployeeID: emp.ID.String(),
			TotalHours: row.TotalHours,
		})
	}

	a.publishRunEvent(ctx, report)

	a.logger.Info("daily stats run finished",
		zap.String("stats_date", report.StatsDate),
		zap.Int("employees", report.Employees),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// RecomputeEmployee rebuilds one employee's DailyStats row for one date.
// Also invoked by the session-stopped consumer so a fresh dashboard does not
// have to wait for the next hourly run.
func (a *Aggregator) RecomputeEmployee(ctx context.Context, employeeID uuid.UUID, date time.Time) (*DailyStats, error) {
	appRows, err := a.repo.SumUsageByApp(ctx, employeeID.String(), date)
	if err != nil {
		return nil, err
	}
	idleSeconds, err := a.repo.SumIdleSeconds(ctx, employeeID.String(), date)
	if err != nil {
		return nil, err
	}

	// usageTotal, not session wall-clock, drives total_hours and the idle
	// denominator: 3600s of usage plus 900s idle reads as 1.0h at 25% idle.
	var usageTotal int64
	for _, r := range appRows {
		usageTotal += r.Duration
	}

	breakdown := make(AppBreakdown, 0, len(appRows))
	for _, r := range appRows {
		var pct float64
		if usageTotal > 0 {
			pct = round2(float64(r.Duration) / float64(usageTotal) * 100)
		}
		breakdown = append(breakdown, AppUsage{
			App:        r.App,
			Duration:   r.Duration,
			Percentage: pct,
			Hours:      round2(float64(r.Duration) / 3600),
		})
	}

	var idlePct float64
	if usageTotal > 0 {
		idlePct = round2(math.Min(100, float64(idleSeconds)/float64(usageTotal)*100))
	}

	attendanceStatus := AttendanceNotMarked
	att, err := a.attendanceRepo.FindByEmployeeAndDate(ctx, employeeID.String(), date)
	if err == nil {
		attendanceStatus = att.Status
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pending, err := a.leaveRepo.CountPendingByEmployee(ctx, employeeID.String())
	if err != nil {
		return nil, err
	}

	row := &DailyStats{
		ID:                  uuid.New(),
		EmployeeID:          employeeID,
		StatsDate:           date,
		TotalHours:          round2(float64(usageTotal) / 3600),
		IdleHours:           round2(float64(idleSeconds) / 3600),
		IdlePercentage:      idlePct,
		AppsUsed:            breakdown,
		AttendanceStatus:    attendanceStatus,
		PendingApplications: pending,
		CalculatedAt:        time.Now().UTC(),
	}
	if err := a.repo.UpsertDaily(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// RunWeekly rolls the last seven days of daily rows into one WeeklyStats row
// per employee.
func (a *Aggregator) RunWeekly(ctx context.Context, end time.Time) (RunReport, error) {
	start := end.AddDate(0, 0, -6)
	report := RunReport{
		StatsDate: end.Format("2006-01-02"),
		RanAt:     time.Now().UTC(),
	}

	emps, err := a.employeeRepo.FindAllByRole(ctx, employee.RoleEmployee)
	if err != nil {
		a.logger.Error("weekly stats run aborted, employee listing failed", zap.Error(err))
		return report, err
	}

	report.Employees = len(emps)
	report.Results = make([]EmployeeResult, 0, len(emps))

	for _, emp := range emps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row, err := a.recomputeWeekly(ctx, emp.ID, start, end)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, EmployeeResult{
				EmployeeID: emp.ID.String(),
				Error:      err.Error(),
			})
			a.logger.Error("weekly stats recompute failed",
				zap.String("employee_id", emp.ID.String()),
				zap.Error(err),
			)
			continue
		}

		report.Succeeded++
		report.Results = append(report.Results, EmployeeResult{
			EmployeeID: emp.ID.String(),
			TotalHours: row.TotalHours,
		})
	}

	a.logger.Info("weekly stats run finished",
		zap.String("week_end", end.Format("2006-01-02")),
		zap.Int("employees", report.Employees),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (a *Aggregator) recomputeWeekly(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (*WeeklyStats, error) {
	days, err := a.repo.FindDailyRange(ctx, employeeID.String(), start, end)
	if err != nil {
		return nil, err
	}

	var totalHours, idleHours float64
	daysWorked := 0
	appDurations := make(map[string]int64)
	for _, d := range days {
		totalHours += d.TotalHours
		idleHours += d.IdleHours
		if d.TotalHours > 0 {
			daysWorked++
		}
		for _, app := range d.AppsUsed {
			appDurations[app.App] += app.Duration
		}
	}

	var usageTotal int64
	for _, dur := range appDurations {
		usageTotal += dur
	}

	breakdown := make(AppBreakdown, 0, len(appDurations))
	for app, dur := range appDurations {
		var pct float64
		if usageTotal > 0 {
			pct = round2(float64(dur) / float64(usageTotal) * 100)
		}
		breakdown = append(breakdown, AppUsage{
			App:        app,
			Duration:   dur,
			Percentage: pct,
			Hours:      round2(float64(dur) / 3600),
		})
	}
	sortBreakdown(breakdown)

	var idlePct float64
	if totalHours > 0 {
		idlePct = round2(math.Min(100, idleHours/totalHours*100))
	}

	row := &WeeklyStats{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		WeekStart:      start,
		WeekEnd:        end,
		TotalHours:     round2(totalHours),
		IdleHours:      round2(idleHours),
		IdlePercentage: idlePct,
		AppsUsed:       breakdown,
		DaysWorked:     daysWorked,
		CalculatedAt:   time.Now().UTC(),
	}
	if err := a.repo.UpsertWeekly(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// publishRunEvent records the run on the outbox so downstream consumers see
// that the read model moved. Failure here never fails the run itself.
func (a *Aggregator) publishRunEvent(ctx context.Context, report RunReport) {
	if a.outbox == nil {
		return
	}

	event := events.StatsRecalculatedEvent{
		EventType:  "stats_recalculated",
		StatsDate:  report.StatsDate,
		Employees:  report.Employees,
		Failed:     report.Failed,
		OccurredAt: report.RanAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		a.logger.Error("encode stats_recalculated event failed", zap.Error(err))
		return
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		a.logger.Error("stats_recalculated outbox tx failed", zap.Error(err))
		return
	}
	defer tx.Rollback()

	if err := a.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "daily_stats",
		AggregateID:   report.StatsDate,
		EventType:     event.EventType,
		Topic:         events.StatsRecalculatedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		a.logger.Error("persist stats_recalculated outbox event failed", zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		a.logger.Error("commit stats_recalculated outbox event failed", zap.Error(err))
	}
}

func sortBreakdown(b AppBreakdown) {
	sort.Slice(b, func(i, j int) bool { return b[i].Duration > b[j].Duration })
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

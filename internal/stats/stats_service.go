package stats

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	dailyStatsCachePrefix = "dashboard:stats:"
	dailyStatsCacheTTL    = 5 * time.Minute

	defaultHistoryDays = 7
	maxHistoryDays     = 30
)

func dailyStatsCacheKey(employeeID string, date time.Time) string {
	return dailyStatsCachePrefix + employeeID + ":" + date.Format("2006-01-02")
}

//go:generate mockgen -source=stats_service.go -destination=mock/stats_service_mock.go -package=mock
type Service interface {
	GetToday(ctx context.Context, employeeID string) (DailyStatsResponse, error)
	GetHistory(ctx context.Context, employeeID string, days int) (HistoryResponse, error)
	GetWeek(ctx context.Context, employeeID string) (WeeklyStatsResponse, error)
	RecalculateNow(ctx context.Context) (RunReport, error)
	GetUsersStats(ctx context.Context) ([]UserStatsResponse, error)
	GetUserHistory(ctx context.Context, employeeID string, days int) (UserHistoryResponse, error)
}

type service struct {
	repo         Repository
	employeeRepo employee.Repository
	aggregator   *Aggregator
	rdb          *redis.Client
	sf           *singleflight.Group
	logger       *zap.Logger
}

func NewService(
	repo Repository,
	employeeRepo employee.Repository,
	aggregator *Aggregator,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("stats.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("stats.service")
	}
	return &service{
		repo:         repo,
		employeeRepo: employeeRepo,
		aggregator:   aggregator,
		rdb:          rdb,
		sf:           &singleflight.Group{},
		logger:       l,
	}
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// GetToday returns the materialized row for today, or a zeroed placeholder if
// the aggregator has not produced one yet. Cached briefly in Redis; the
// singleflight group collapses concurrent cache misses into one query.
func (s *service) GetToday(ctx context.Context, employeeID string) (DailyStatsResponse, error) {
	day := today()
	cacheKey := dailyStatsCacheKey(employeeID, day)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp DailyStatsResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		row, err := s.repo.FindDaily(ctx, employeeID, day)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return placeholderResponse(day), nil
			}
			return DailyStatsResponse{}, err
		}

		resp := mapDailyToResponse(*row)
		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, payload, dailyStatsCacheTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return DailyStatsResponse{}, err
	}
	return v.(DailyStatsResponse), nil
}

func (s *service) GetHistory(ctx context.Context, employeeID string, days int) (HistoryResponse, error) {
	days = clampDays(days)
	end := today()
	start := end.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.FindDailyRange(ctx, employeeID, start, end)
	if err != nil {
		return HistoryResponse{}, err
	}

	resp := HistoryResponse{Days: days, Rows: make([]DailyStatsResponse, len(rows))}
	var sumHours, sumIdlePct float64
	for i, row := range rows {
		resp.Rows[i] = mapDailyToResponse(row)
		sumHours += row.TotalHours
		sumIdlePct += row.IdlePercentage
	}
	if len(rows) > 0 {
		resp.AverageHours = round2(sumHours / float64(len(rows)))
		resp.AverageIdlePercentage = round2(sumIdlePct / float64(len(rows)))
	}
	return resp, nil
}

// GetWeek prefers the row whose window ends today; the weekly run fires once
// a day, so between midnight and the day's run the freshest row is keyed to
// yesterday and is served via the latest-row fallback instead.
func (s *service) GetWeek(ctx context.Context, employeeID string) (WeeklyStatsResponse, error) {
	weekStart := today().AddDate(0, 0, -6)

	row, err := s.repo.FindWeekly(ctx, employeeID, weekStart)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row, err = s.repo.FindLatestWeekly(ctx, employeeID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WeeklyStatsResponse{
				WeekStart: weekStart.Format("2006-01-02"),
				WeekEnd:   today().Format("2006-01-02"),
				AppsUsed:  []AppUsage{},
			}, nil
		}
		return WeeklyStatsResponse{}, err
	}

	return WeeklyStatsResponse{
		WeekStart:      row.WeekStart.Format("2006-01-02"),
		WeekEnd:        row.WeekEnd.Format("2006-01-02"),
		TotalHours:     row.TotalHours,
		IdleHours:      row.IdleHours,
		IdlePercentage: row.IdlePercentage,
		AppsUsed:       row.AppsUsed,
		DaysWorked:     row.DaysWorked,
	}, nil
}

// RecalculateNow forces an out-of-band daily run and returns its report.
func (s *service) RecalculateNow(ctx context.Context) (RunReport, error) {
	day := today()
	report, err := s.aggregator.RunDaily(ctx, day)
	if err != nil {
		return report, err
	}

	// Drop per-employee cache entries so dashboards see the fresh rows.
	if s.rdb != nil {
		for _, res := range report.Results {
			if res.Error == "" {
				if err := s.rdb.Del(ctx, dailyStatsCacheKey(res.EmployeeID, day)).Err(); err != nil {
					s.logger.Warn("invalidate stats cache failed",
						zap.String("employee_id", res.EmployeeID),
						zap.Error(err),
					)
				}
			}
		}
	}
	return report, nil
}

func (s *service) GetUsersStats(ctx context.Context) ([]UserStatsResponse, error) {
	emps, err := s.employeeRepo.FindAllByRole(ctx, employee.RoleEmployee)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.FindDailyByDate(ctx, today())
	if err != nil {
		return nil, err
	}
	byEmployee := make(map[string]DailyStats, len(rows))
	for _, row := range rows {
		byEmployee[row.EmployeeID.String()] = row
	}

	resp := make([]UserStatsResponse, 0, len(emps))
	for _, emp := range emps {
		entry := UserStatsResponse{
			EmployeeID:       emp.ID.String(),
			FullName:         emp.FullName,
			AttendanceStatus: AttendanceNotMarked,
		}
		if row, ok := byEmployee[entry.EmployeeID]; ok {
			entry.TotalHours = row.TotalHours
			entry.IdleHours = row.IdleHours
			entry.IdlePercentage = row.IdlePercentage
			entry.AttendanceStatus = row.AttendanceStatus
		}
		resp = append(resp, entry)
	}

	sortUsersStats(resp)
	return resp, nil
}

func (s *service) GetUserHistory(ctx context.Context, employeeID string, days int) (UserHistoryResponse, error) {
	emp, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserHistoryResponse{}, apperror.ErrNotFound
		}
		return UserHistoryResponse{}, err
	}

	history, err := s.GetHistory(ctx, employeeID, days)
	if err != nil {
		return UserHistoryResponse{}, err
	}

	appDurations := make(map[string]int64)
	var usageTotal int64
	for _, row := range history.Rows {
		for _, app := range row.AppsUsed {
			appDurations[app.App] += app.Duration
			usageTotal += app.Duration
		}
	}

	topApps := make(AppBreakdown, 0, len(appDurations))
	for app, dur := range appDurations {
		var pct float64
		if usageTotal > 0 {
			pct = round2(float64(dur) / float64(usageTotal) * 100)
		}
		topApps = append(topApps, AppUsage{
			App:        app,
			Duration:   dur,
			Percentage: pct,
			Hours:      round2(float64(dur) / 3600),
		})
	}
	sortBreakdown(topApps)
	if len(topApps) > 5 {
		topApps = topApps[:5]
	}

	return UserHistoryResponse{
		EmployeeID: emp.ID.String(),
		FullName:   emp.FullName,
		Rows:       history.Rows,
		TopApps:    topApps,
	}, nil
}

func sortUsersStats(rows []UserStatsResponse) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalHours > rows[j].TotalHours })
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultHistoryDays
	}
	if days > maxHistoryDays {
		return maxHistoryDays
	}
	return days
}

func placeholderResponse(date time.Time) DailyStatsResponse {
	return DailyStatsResponse{
		Date:             date.Format("2006-01-02"),
		AppsUsed:         []AppUsage{},
		AttendanceStatus: AttendanceNotMarked,
	}
}

func mapDailyToResponse(row DailyStats) DailyStatsResponse {
	calculatedAt := row.CalculatedAt.Format(time.RFC3339)
	apps := row.AppsUsed
	if apps == nil {
		apps = AppBreakdown{}
	}
	return DailyStatsResponse{
		Date:                row.StatsDate.Format("2006-01-02"),
		TotalHours:          row.TotalHours,
		IdleHours:           row.IdleHours,
		IdlePercentage:      row.IdlePercentage,
		AppsUsed:            apps,
		AttendanceStatus:    row.AttendanceStatus,
		PendingApplications: row.PendingApplications,
		CalculatedAt:        &calculatedAt,
	}
}

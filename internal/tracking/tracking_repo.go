package tracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/coding-cat0-0/tracker/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=tracking_repo.go -destination=mock/tracking_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateSession(ctx context.Context, s *TrackingSession) error
	FindSessionByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*TrackingSession, error)
	FindActiveSession(ctx context.Context, employeeID string, date time.Time) (*TrackingSession, error)
	UpdateSession(ctx context.Context, s *TrackingSession) error
	FindSessionsByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]TrackingSession, error)
	CreateUsageBatch(ctx context.Context, rows []UsageEvent) error
	FindUsageBySessions(ctx context.Context, sessionIDs []string) ([]UsageEvent, error)
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

func (r *repository) CreateSession(ctx context.Context, s *TrackingSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindSessionByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*TrackingSession, error) {
	var s TrackingSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("work_date = ?", date.Format("2006-01-02")).
		First(&s).Error
	return &s, err
}

func (r *repository) FindActiveSession(ctx context.Context, employeeID string, date time.Time) (*TrackingSession, error) {
	var s TrackingSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("work_date = ?", date.Format("2006-01-02")).
		Where("status = ?", StatusActive).
		First(&s).Error
	return &s, err
}

func (r *repository) UpdateSession(ctx context.Context, s *TrackingSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) FindSessionsByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]TrackingSession, error) {
	var rows []TrackingSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("work_date >= ?", from.Format("2006-01-02")).
		Where("work_date <= ?", to.Format("2006-01-02")).
		Order("work_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateUsageBatch(ctx context.Context, rows []UsageEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) FindUsageBySessions(ctx context.Context, sessionIDs []string) ([]UsageEvent, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var rows []UsageEvent
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

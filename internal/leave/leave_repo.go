package leave

import (
	"context"
	"database/sql"

	"github.com/coding-cat0-0/tracker/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveApplication) error
	FindAllByEmployee(ctx context.Context, employeeID, status string) ([]LeaveApplication, error)
	FindByIDAndEmployee(ctx context.Context, employeeID, id string) (*LeaveApplication, error)
	Delete(ctx context.Context, employeeID, id string) error
	CountPendingByEmployee(ctx context.Context, employeeID string) (int64, error)
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

func (r *repository) Create(ctx context.Context, l *LeaveApplication) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID, status string) ([]LeaveApplication, error) {
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var rows []LeaveApplication
	err := db.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindByIDAndEmployee(ctx context.Context, employeeID, id string) (*LeaveApplication, error) {
	var l LeaveApplication
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) Delete(ctx context.Context, employeeID, id string) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Delete(&LeaveApplication{}, "id = ?", id).Error
}

func (r *repository) CountPendingByEmployee(ctx context.Context, employeeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveApplication{}).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusPending).
		Count(&count).Error
	return count, err
}

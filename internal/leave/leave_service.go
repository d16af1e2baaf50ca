package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	leaveerrors "github.com/coding-cat0-0/tracker/internal/leave/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"

	ReasonCasual = "CASUAL"
	ReasonSick   = "SICK"
	ReasonOther  = "OTHER"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, employeeID string, req CreateApplicationRequest) (ApplicationResponse, error)
	GetMine(ctx context.Context, employeeID, status string) ([]ApplicationResponse, error)
	Withdraw(ctx context.Context, employeeID, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Apply(ctx context.Context, employeeID string, req CreateApplicationRequest) (ApplicationResponse, error) {
	s.logger.Debug("apply for leave requested",
		zap.String("employee_id", employeeID),
		zap.String("reason", req.Reason),
	)

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return ApplicationResponse{}, leaveerrors.ErrInvalidEmployeeID
	}

	reason := strings.ToUpper(strings.TrimSpace(req.Reason))
	switch reason {
	case ReasonCasual, ReasonSick, ReasonOther:
	default:
		return ApplicationResponse{}, leaveerrors.ErrInvalidReason
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply for leave begin tx failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l := &LeaveApplication{
		ID:         uuid.New(),
		EmployeeID: employeeUUID,
		Reason:     reason,
		Body:       req.Body,
		Status:     StatusPending,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply for leave persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply for leave commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	s.logger.Info("leave application created",
		zap.String("application_id", l.ID.String()),
		zap.String("employee_id", employeeID),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetMine(ctx context.Context, employeeID, status string) ([]ApplicationResponse, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	switch status {
	case "", StatusPending, StatusAccepted, StatusRejected:
	default:
		return nil, leaveerrors.ErrInvalidStatusFilter
	}

	rows, err := s.repo.FindAllByEmployee(ctx, employeeID, status)
	if err != nil {
		return nil, err
	}

	res := make([]ApplicationResponse, len(rows))
	for i, l := range rows {
		res[i] = mapToResponse(l)
	}
	return res, nil
}

func (s *service) Withdraw(ctx context.Context, employeeID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDAndEmployee(ctx, employeeID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrApplicationNotFound
		}
		return err
	}
	if l.Status != StatusPending {
		return leaveerrors.ErrApplicationNotPending
	}

	if err := qtx.Delete(ctx, employeeID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("leave application withdrawn",
		zap.String("application_id", id),
		zap.String("employee_id", employeeID),
	)
	return nil
}

func mapToResponse(l LeaveApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		Reason:     l.Reason,
		Body:       l.Body,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
}

package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	GetMine(ctx context.Context, employeeID string) ([]AttendanceResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetMine(ctx context.Context, employeeID string) ([]AttendanceResponse, error) {
	rows, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

// EnsureMarked creates a PRESENT row for the day if none exists. Callers pass
// a transactional repository so the mark commits together with the session
// finalize.
func EnsureMarked(ctx context.Context, repo Repository, employeeID uuid.UUID, date time.Time) error {
	_, err := repo.FindByEmployeeAndDate(ctx, employeeID.String(), date)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return repo.Create(ctx, &Attendance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		AttendanceDate: date,
		Status:         StatusPresent,
	})
}

func mapToResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:             a.ID.String(),
		EmployeeID:     a.EmployeeID.String(),
		AttendanceDate: a.AttendanceDate.Format("2006-01-02"),
		Status:         a.Status,
	}
}

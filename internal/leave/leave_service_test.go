package leave_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/coding-cat0-0/tracker/internal/leave"
	leaveerrors "github.com/coding-cat0-0/tracker/internal/leave/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	createFn              func(ctx context.Context, l *leave.LeaveApplication) error
	findAllByEmployeeFn   func(ctx context.Context, employeeID, status string) ([]leave.LeaveApplication, error)
	findByIDAndEmployeeFn func(ctx context.Context, employeeID, id string) (*leave.LeaveApplication, error)
	deleteFn              func(ctx context.Context, employeeID, id string) error
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveApplication) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, employeeID, status string) ([]leave.LeaveApplication, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, employeeID, status)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindByIDAndEmployee(ctx context.Context, employeeID, id string) (*leave.LeaveApplication, error) {
	if f.findByIDAndEmployeeFn != nil {
		return f.findByIDAndEmployeeFn(ctx, employeeID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) Delete(ctx context.Context, employeeID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, employeeID, id)
	}
	return nil
}

func (f *fakeLeaveRepository) CountPendingByEmployee(ctx context.Context, employeeID string) (int64, error) {
	return 0, nil
}

type leaveServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	repo    *fakeLeaveRepository
	service leave.Service
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	svc := leave.NewService(db, repo)

	return &leaveServiceDeps{db: db, sqlMock: sqlMock, repo: repo, service: svc}
}

func TestLeaveService_Apply(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("success normalizes the reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveApplication) error {
			assert.Equal(t, employeeID, l.EmployeeID.String())
			assert.Equal(t, leave.ReasonSick, l.Reason)
			assert.Equal(t, leave.StatusPending, l.Status)
			return nil
		}

		resp, err := deps.service.Apply(ctx, employeeID, leave.CreateApplicationRequest{
			Reason: " sick ",
			Body:   "flu, staying home",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, leave.ReasonSick, resp.Reason)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("rejects unknown reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Apply(ctx, employeeID, leave.CreateApplicationRequest{
			Reason: "VACATION",
			Body:   "two weeks off",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidReason)
	})

	t.Run("rejects invalid employee id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Apply(ctx, "nope", leave.CreateApplicationRequest{
			Reason: "SICK",
			Body:   "flu",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidEmployeeID)
	})
}

func TestLeaveService_GetMine(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("passes the status filter through", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByEmployeeFn = func(ctx context.Context, eid, status string) ([]leave.LeaveApplication, error) {
			assert.Equal(t, leave.StatusPending, status)
			return []leave.LeaveApplication{{
				ID:         uuid.New(),
				EmployeeID: uuid.MustParse(employeeID),
				Reason:     leave.ReasonCasual,
				Status:     leave.StatusPending,
			}}, nil
		}

		rows, err := deps.service.GetMine(ctx, employeeID, "pending")

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetMine(ctx, employeeID, "DRAFT")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)
	})
}

func TestLeaveService_Withdraw(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	applicationID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findByIDAndEmployeeFn = func(ctx context.Context, eid, id string) (*leave.LeaveApplication, error) {
			return &leave.LeaveApplication{Status: leave.StatusPending}, nil
		}
		deleted := false
		deps.repo.deleteFn = func(ctx context.Context, eid, id string) error {
			deleted = true
			assert.Equal(t, applicationID, id)
			return nil
		}

		err := deps.service.Withdraw(ctx, employeeID, applicationID)

		assert.NoError(t, err)
		assert.True(t, deleted)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		err := deps.service.Withdraw(ctx, employeeID, applicationID)

		assert.ErrorIs(t, err, leaveerrors.ErrApplicationNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("only pending applications can be withdrawn", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.repo.findByIDAndEmployeeFn = func(ctx context.Context, eid, id string) (*leave.LeaveApplication, error) {
			return &leave.LeaveApplication{Status: leave.StatusAccepted}, nil
		}

		err := deps.service.Withdraw(ctx, employeeID, applicationID)

		assert.ErrorIs(t, err, leaveerrors.ErrApplicationNotPending)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

package leave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coding-cat0-0/tracker/internal/leave"
	leaveerrors "github.com/coding-cat0-0/tracker/internal/leave/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveService struct {
	applyFn    func(ctx context.Context, employeeID string, req leave.CreateApplicationRequest) (leave.ApplicationResponse, error)
	getMineFn  func(ctx context.Context, employeeID, status string) ([]leave.ApplicationResponse, error)
	withdrawFn func(ctx context.Context, employeeID, id string) error
}

func (f *fakeLeaveService) Apply(ctx context.Context, employeeID string, req leave.CreateApplicationRequest) (leave.ApplicationResponse, error) {
	return f.applyFn(ctx, employeeID, req)
}

func (f *fakeLeaveService) GetMine(ctx context.Context, employeeID, status string) ([]leave.ApplicationResponse, error) {
	return f.getMineFn(ctx, employeeID, status)
}

func (f *fakeLeaveService) Withdraw(ctx context.Context, employeeID, id string) error {
	return f.withdrawFn(ctx, employeeID, id)
}

func TestHandler_Apply(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New().String()

	t.Run("created", func(t *testing.T) {
		svc := &fakeLeaveService{
			applyFn: func(ctx context.Context, eid string, req leave.CreateApplicationRequest) (leave.ApplicationResponse, error) {
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, "SICK", req.Reason)
				return leave.ApplicationResponse{ID: uuid.New().String(), Status: leave.StatusPending}, nil
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("employee_id", employeeID)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves",
			strings.NewReader(`{"reason":"SICK","body":"flu"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.Apply(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), leave.StatusPending)
	})

	t.Run("missing body is rejected", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("employee_id", employeeID)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves",
			strings.NewReader(`{"reason":"SICK"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		h.Apply(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Withdraw(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New().String()
	applicationID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			withdrawFn: func(ctx context.Context, eid, id string) error {
				assert.Equal(t, applicationID, id)
				return nil
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("employee_id", employeeID)
		c.Params = gin.Params{{Key: "id", Value: applicationID}}
		c.Request = httptest.NewRequest(http.MethodDelete, "/leaves/"+applicationID, nil)
		h.Withdraw(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			withdrawFn: func(ctx context.Context, eid, id string) error {
				return leaveerrors.ErrApplicationNotFound
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("employee_id", employeeID)
		c.Params = gin.Params{{Key: "id", Value: applicationID}}
		c.Request = httptest.NewRequest(http.MethodDelete, "/leaves/"+applicationID, nil)
		h.Withdraw(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

package tracking

import (
	"net/http"

	"github.com/coding-cat0-0/tracker/internal/shared/apperror"
	"github.com/coding-cat0-0/tracker/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Start(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.Start(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) PushUsage(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	var req PushUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	if err := h.service.PushUsage(c.Request.Context(), employeeID, req); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}

func (h *Handler) PushIdle(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	var req PushIdleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	if err := h.service.PushIdle(c.Request.Context(), employeeID, req); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}

func (h *Handler) Sync(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.Sync(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Stop(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.Stop(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetTimesheet(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.GetTimesheet(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetTimesheetWeek(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.GetTimesheetWeek(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

package stats

import (
	"net/http"
	"strconv"

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

func daysQuery(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil {
		return 0
	}
	return days
}

func (h *Handler) GetToday(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.GetToday(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetHistory(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.GetHistory(c.Request.Context(), employeeID, daysQuery(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetWeek(c *gin.Context) {
	employeeID := c.GetString("employee_id")

	resp, err := h.service.GetWeek(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Recalculate(c *gin.Context) {
	report, err := h.service.RecalculateNow(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report, nil)
}

func (h *Handler) GetUsersStats(c *gin.Context) {
	resp, err := h.service.GetUsersStats(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetUserHistory(c *gin.Context) {
	employeeID := c.Param("id")

	resp, err := h.service.GetUserHistory(c.Request.Context(), employeeID, daysQuery(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

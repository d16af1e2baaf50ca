package tracking

import (
	"github.com/coding-cat0-0/tracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	// Clients report one event per app-focus change; 20 rps with a burst of
	// 50 absorbs reconnect replays without letting a runaway client flood
	// the buffer.
	eventLimit := middleware.RateLimitByEmployee(rate.Limit(20), 50)

	tracking := r.Group("/tracking")
	tracking.Use(middleware.AuthMiddleware())
	{
		tracking.POST("/start", h.Start)
		tracking.POST("/events", eventLimit, h.PushUsage)
		tracking.POST("/idle", eventLimit, h.PushIdle)
		tracking.POST("/sync", h.Sync)
		tracking.POST("/stop", h.Stop)
		tracking.GET("/timesheet", h.GetTimesheet)
		tracking.GET("/timesheet/week", h.GetTimesheetWeek)
	}
}

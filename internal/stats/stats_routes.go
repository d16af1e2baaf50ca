package stats

import (
	"github.com/coding-cat0-0/tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware())
	{
		dashboard.GET("/stats", h.GetToday)
		dashboard.GET("/history", h.GetHistory)
		dashboard.GET("/week", h.GetWeek)
	}

	admin := r.Group("/admin/dashboard")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(middleware.RoleAdmin))
	{
		admin.POST("/recalculate", h.Recalculate)
		admin.GET("/users-stats", h.GetUsersStats)
		admin.GET("/users/:id/history", h.GetUserHistory)
	}
}

package leave

import (
	"github.com/coding-cat0-0/tracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.Idempotency(rdb), h.Apply)
		leaves.GET("", h.GetMine)
		leaves.DELETE("/:id", h.Withdraw)
	}
}

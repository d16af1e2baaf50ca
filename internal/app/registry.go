package app

import (
	"database/sql"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/leave"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka"
	"github.com/coding-cat0-0/tracker/internal/stats"
	"github.com/coding-cat0-0/tracker/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	attendanceRepo := attendance.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	statsRepo := stats.NewRepository(gormDB)
	trackingRepo := tracking.NewRepository(gormDB)

	// --- Services ---
	eventBuffer := tracking.NewRedisEventBuffer(rdb)
	attendanceService := attendance.NewService(attendanceRepo)
	leaveService := leave.NewService(db, leaveRepo)
	trackingService := tracking.NewServiceWithOutbox(db, trackingRepo, attendanceRepo, eventBuffer, outboxRepo)
	aggregator := stats.NewAggregator(db, statsRepo, employeeRepo, attendanceRepo, leaveRepo, outboxRepo)
	statsService := stats.NewService(statsRepo, employeeRepo, aggregator, rdb)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	statsHandler := stats.NewHandler(statsService)
	trackingHandler := tracking.NewHandler(trackingService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		attendance.RegisterRoutes(api, attendanceHandler)
		leave.RegisterRoutes(api, leaveHandler, rdb)
		stats.RegisterRoutes(api, statsHandler)
		tracking.RegisterRoutes(api, trackingHandler)
	}

	return nil
}

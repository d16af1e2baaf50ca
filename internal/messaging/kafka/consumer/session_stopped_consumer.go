package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coding-cat0-0/tracker/internal/events"
	"github.com/coding-cat0-0/tracker/internal/stats"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeSessionLifecycle refreshes a single employee's DailyStats row as
// soon as their session stops, so a freshly opened dashboard does not wait
// for the next hourly run. Recompute is idempotent, so redelivery after a
// failed commit is harmless.
func ConsumeSessionLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	aggregator *stats.Aggregator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.session_lifecycle")
	log.Info("session lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("session lifecycle consumer stopped")
				return
			}
			log.Error("fetch session lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.SessionStoppedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode session_stopped event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		employeeID, err := uuid.Parse(event.EmployeeID)
		if err != nil {
			log.Error("session_stopped event carries invalid employee id",
				zap.String("employee_id", event.EmployeeID),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		workDate, err := time.Parse("2006-01-02", event.WorkDate)
		if err != nil {
			log.Error("session_stopped event carries invalid work date",
				zap.String("work_date", event.WorkDate),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := aggregator.RecomputeEmployee(ctx, employeeID, workDate); err != nil {
			log.Error("refresh daily stats from session_stopped event failed",
				zap.String("employee_id", event.EmployeeID),
				zap.String("work_date", event.WorkDate),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit session lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("daily stats refreshed from session_stopped event",
			zap.String("employee_id", event.EmployeeID),
			zap.String("work_date", event.WorkDate),
		)
	}
}

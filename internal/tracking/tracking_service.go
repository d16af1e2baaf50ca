package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/events"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka"
	"github.com/coding-cat0-0/tracker/internal/shared/contextutil"
	trackingerrors "github.com/coding-cat0-0/tracker/internal/tracking/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=tracking_service.go -destination=mock/tracking_service_mock.go -package=mock
type Service interface {
	Start(ctx context.Context, employeeID string) (StartResponse, error)
	PushUsage(ctx context.Context, employeeID string, req PushUsageRequest) error
	PushIdle(ctx context.Context, employeeID string, req PushIdleRequest) error
	Sync(ctx context.Context, employeeID string) (SyncResponse, error)
	Stop(ctx context.Context, employeeID string) (StopResponse, error)
	GetTimesheet(ctx context.Context, employeeID string) (TimesheetResponse, error)
	GetTimesheetWeek(ctx context.Context, employeeID string) (TimesheetResponse, error)
}

type service struct {
	db             *sql.DB
	repo           Repository
	attendanceRepo attendance.Repository
	buffer         EventBuffer
	outbox         kafka.OutboxRepository
	locks          *KeyedMutex
	logger         *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	attendanceRepo attendance.Repository,
	buffer EventBuffer,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, attendanceRepo, buffer, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	attendanceRepo attendance.Repository,
	buffer EventBuffer,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("tracking.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("tracking.service")
	}
	return &service{
		db:             db,
		repo:           repo,
		attendanceRepo: attendanceRepo,
		buffer:         buffer,
		outbox:         outboxRepo,
		locks:          NewKeyedMutex(),
		logger:         l,
	}
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func (s *service) Start(ctx context.Context, employeeID string) (StartResponse, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return StartResponse{}, trackingerrors.ErrInvalidEmployeeID
	}

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("start session begin tx failed", zap.Error(err))
		return StartResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := time.Now().UTC()
	workDate := today()

	existing, err := qtx.FindSessionByEmployeeAndDate(ctx, employeeID, workDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return StartResponse{}, err
	}

	if err == nil {
		if existing.Status == StatusActive {
			return StartResponse{}, trackingerrors.ErrSessionAlreadyActive
		}

		// INACTIVE is paused, not terminal: reactivate the day's session
		// instead of creating a duplicate.
		existing.Status = StatusActive
		existing.EndTime = nil
		if err := qtx.UpdateSession(ctx, existing); err != nil {
			s.logger.Error("reactivate session failed", zap.Error(err))
			return StartResponse{}, err
		}
		if err := tx.Commit(); err != nil {
			return StartResponse{}, err
		}

		s.logger.Info("tracking session reactivated",
			zap.String("session_id", existing.ID.String()),
			zap.String("employee_id", employeeID),
		)
		return StartResponse{
			SessionID:   existing.ID.String(),
			WorkDate:    existing.WorkDate.Format("2006-01-02"),
			StartTime:   existing.StartTime.Format(time.RFC3339),
			Reactivated: true,
		}, nil
	}

	session := &TrackingSession{
		ID:         uuid.New(),
		EmployeeID: employeeUUID,
		WorkDate:   workDate,
		StartTime:  now,
		Status:     StatusActive,
	}
	if err := qtx.CreateSession(ctx, session); err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		return StartResponse{}, mapSessionCreateError(err)
	}
	if err := tx.Commit(); err != nil {
		return StartResponse{}, err
	}

	s.logger.Info("tracking session started",
		zap.String("session_id", session.ID.String()),
		zap.String("employee_id", employeeID),
	)
	return StartResponse{
		SessionID: session.ID.String(),
		WorkDate:  session.WorkDate.Format("2006-01-02"),
		StartTime: session.StartTime.Format(time.RFC3339),
	}, nil
}

// PushUsage enqueues one usage observation. Fire-and-forget: nothing is
// validated beyond the request binding, and nothing touches the database.
func (s *service) PushUsage(ctx context.Context, employeeID string, req PushUsageRequest) error {
	payload, err := json.Marshal(UsagePayload{
		Event:     "usage",
		App:       req.App,
		Duration:  req.Duration,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		return err
	}
	return s.buffer.EnqueueUsage(ctx, employeeID, payload)
}

func (s *service) PushIdle(ctx context.Context, employeeID string, req PushIdleRequest) error {
	payload, err := json.Marshal(IdlePayload{
		Event:   "idle",
		Seconds: req.Seconds,
	})
	if err != nil {
		return err
	}
	return s.buffer.EnqueueIdle(ctx, employeeID, payload)
}

// Sync drains the usage queue into durable storage without stopping the
// session. Re-invocation on an empty queue is a no-op.
func (s *service) Sync(ctx context.Context, employeeID string) (SyncResponse, error) {
	unlock := s.locks.Lock(employeeID)
	defer unlock()

	session, err := s.repo.FindActiveSession(ctx, employeeID, today())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SyncResponse{}, trackingerrors.ErrNoActiveSession
		}
		return SyncResponse{}, err
	}

	msgs, err := s.buffer.DrainUsage(ctx, employeeID)
	if err != nil {
		return SyncResponse{}, err
	}

	rows, rejected := s.decodeUsageBatch(msgs, session)
	if rejected > 0 {
		s.logger.Warn("malformed usage events dropped during sync",
			zap.String("employee_id", employeeID),
			zap.Int("rejected", rejected),
		)
	}
	if len(rows) == 0 {
		return SyncResponse{Rejected: rejected}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateUsageBatch(ctx, rows); err != nil {
		s.logger.Error("persist usage batch failed", zap.Error(err))
		return SyncResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return SyncResponse{}, err
	}

	s.logger.Info("usage events synced",
		zap.String("employee_id", employeeID),
		zap.String("session_id", session.ID.String()),
		zap.Int("synced", len(rows)),
		zap.Int("rejected", rejected),
	)
	return SyncResponse{Synced: len(rows), Rejected: rejected}, nil
}

// Stop drains both queues, folds idle seconds into the session, persists the
// remaining usage events, finalizes the session and marks attendance, all in
// one transaction.
//
// TotalSeconds is the wall-clock delta between start and end, not the sum of
// reported usage durations; buffered-but-undrained events or reporting gaps
// make the two diverge. Both figures are returned so the gap is observable.
func (s *service) Stop(ctx context.Context, employeeID string) (StopResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	session, err := s.repo.FindActiveSession(ctx, employeeID, today())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StopResponse{}, trackingerrors.ErrNoActiveSession
		}
		return StopResponse{}, err
	}

	idleMsgs, err := s.buffer.DrainIdle(ctx, employeeID)
	if err != nil {
		return StopResponse{}, err
	}
	usageMsgs, err := s.buffer.DrainUsage(ctx, employeeID)
	if err != nil {
		return StopResponse{}, err
	}

	idleSum, idleRejected := decodeIdleBatch(idleMsgs)
	rows, usageRejected := s.decodeUsageBatch(usageMsgs, session)
	rejected := idleRejected + usageRejected
	if rejected > 0 {
		s.logger.Warn("malformed events dropped during stop",
			zap.String("employee_id", employeeID),
			zap.Int("rejected", rejected),
		)
	}

	var usageSeconds int64
	for _, r := range rows {
		usageSeconds += r.Duration
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("stop session begin tx failed", zap.Error(err))
		return StopResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateUsageBatch(ctx, rows); err != nil {
		s.logger.Error("persist usage batch failed", zap.Error(err))
		return StopResponse{}, err
	}

	session.EndTime = &now
	session.TotalSeconds = int64(now.Sub(session.StartTime).Seconds())
	session.IdleSeconds += idleSum
	session.Status = StatusInactive
	if err := qtx.UpdateSession(ctx, session); err != nil {
		s.logger.Error("finalize session failed", zap.Error(err))
		return StopResponse{}, err
	}

	if err := attendance.EnsureMarked(ctx, s.attendanceRepo.WithTx(tx), session.EmployeeID, session.WorkDate); err != nil {
		s.logger.Error("mark attendance failed", zap.Error(err))
		return StopResponse{}, err
	}

	if s.outbox != nil {
		event := events.SessionStoppedEvent{
			EventType:    "session_stopped",
			RequestID:    rid,
			SessionID:    session.ID.String(),
			EmployeeID:   employeeID,
			WorkDate:     session.WorkDate.Format("2006-01-02"),
			TotalSeconds: session.TotalSeconds,
			IdleSeconds:  session.IdleSeconds,
			OccurredAt:   now,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return StopResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "tracking_session",
			AggregateID:   session.ID.String(),
			EventType:     event.EventType,
			Topic:         events.SessionStoppedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("stop session outbox persist failed", zap.Error(err))
			return StopResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("stop session commit failed", zap.Error(err))
		return StopResponse{}, err
	}

	s.logger.Info("tracking session stopped",
		zap.String("request_id", rid),
		zap.String("session_id", session.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int64("total_seconds", session.TotalSeconds),
		zap.Int64("idle_seconds", session.IdleSeconds),
		zap.Int("synced", len(rows)),
		zap.Int("rejected", rejected),
	)
	return StopResponse{
		SessionID:    session.ID.String(),
		WorkDate:     session.WorkDate.Format("2006-01-02"),
		TotalSeconds: session.TotalSeconds,
		IdleSeconds:  session.IdleSeconds,
		UsageSeconds: usageSeconds,
		Synced:       len(rows),
		Rejected:     rejected,
	}, nil
}

func (s *service) GetTimesheet(ctx context.Context, employeeID string) (TimesheetResponse, error) {
	day := today()
	return s.timesheetForRange(ctx, employeeID, day, day)
}

func (s *service) GetTimesheetWeek(ctx context.Context, employeeID string) (TimesheetResponse, error) {
	end := today()
	// Inclusive eight-day window, today plus the seven days before it;
	// clients render exactly this window as the "week" view.
	start := end.AddDate(0, 0, -7)
	return s.timesheetForRange(ctx, employeeID, start, end)
}

func (s *service) timesheetForRange(ctx context.Context, employeeID string, from, to time.Time) (TimesheetResponse, error) {
	sessions, err := s.repo.FindSessionsByEmployeeAndRange(ctx, employeeID, from, to)
	if err != nil {
		return TimesheetResponse{}, err
	}
	if len(sessions) == 0 {
		return TimesheetResponse{Sessions: []SessionResponse{}}, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID.String()
	}
	usages, err := s.repo.FindUsageBySessions(ctx, ids)
	if err != nil {
		return TimesheetResponse{}, err
	}

	bySession := make(map[uuid.UUID][]UsageResponse)
	for _, u := range usages {
		bySession[u.SessionID] = append(bySession[u.SessionID], UsageResponse{
			ID:        u.ID.String(),
			App:       u.App,
			Duration:  u.Duration,
			Timestamp: u.Timestamp.Format(time.RFC3339),
		})
	}

	res := make([]SessionResponse, len(sessions))
	for i, sess := range sessions {
		sr := SessionResponse{
			ID:           sess.ID.String(),
			EmployeeID:   sess.EmployeeID.String(),
			WorkDate:     sess.WorkDate.Format("2006-01-02"),
			StartTime:    sess.StartTime.Format(time.RFC3339),
			Status:       sess.Status,
			TotalSeconds: sess.TotalSeconds,
			IdleSeconds:  sess.IdleSeconds,
			Usages:       bySession[sess.ID],
		}
		if sr.Usages == nil {
			sr.Usages = []UsageResponse{}
		}
		if sess.EndTime != nil {
			v := sess.EndTime.Format(time.RFC3339)
			sr.EndTime = &v
		}
		res[i] = sr
	}
	return TimesheetResponse{Sessions: res}, nil
}

// decodeUsageBatch parses drained queue entries into durable rows stamped
// with the session id. Malformed entries are counted, never persisted.
func (s *service) decodeUsageBatch(msgs []string, session *TrackingSession) ([]UsageEvent, int) {
	var rows []UsageEvent
	rejected := 0

	for _, msg := range msgs {
		var p UsagePayload
		if err := json.Unmarshal([]byte(msg), &p); err != nil {
			rejected++
			continue
		}
		if p.Event != "usage" || p.App == "" || p.Duration <= 0 {
			rejected++
			continue
		}
		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			rejected++
			continue
		}

		rows = append(rows, UsageEvent{
			ID:         uuid.New(),
			EmployeeID: session.EmployeeID,
			SessionID:  session.ID,
			App:        p.App,
			Duration:   p.Duration,
			Timestamp:  ts,
		})
	}
	return rows, rejected
}

func decodeIdleBatch(msgs []string) (int64, int) {
	var sum int64
	rejected := 0

	for _, msg := range msgs {
		var p IdlePayload
		if err := json.Unmarshal([]byte(msg), &p); err != nil {
			rejected++
			continue
		}
		if p.Event != "idle" || p.Seconds <= 0 {
			rejected++
			continue
		}
		sum += p.Seconds
	}
	return sum, rejected
}

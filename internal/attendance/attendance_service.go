package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	attendanceerrors "go-presence/internal/attendance/errors"
	"go-presence/internal/events"
	"go-presence/internal/messaging/kafka"
	"go-presence/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSkewTolerance bounds how far a check-in timestamp may lie in the
// future before it is rejected as a bad device clock.
const DefaultSkewTolerance = 5 * time.Minute

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	CheckIn(ctx context.Context, orgID, subjectID string, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, orgID, subjectID string, req CheckOutRequest) (AttendanceResponse, error)
	FindByOfflineID(ctx context.Context, orgID, offlineID string) (AttendanceResponse, error)
	ListByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceResponse, error)
	GetAll(ctx context.Context, orgID, actorID string, canReadAll bool) ([]AttendanceResponse, error)
}

type service struct {
	db            *sql.DB
	repo          Repository
	outbox        kafka.OutboxRepository
	skewTolerance time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewService(db *sql.DB, repo Repository, skewTolerance time.Duration) Service {
	return NewServiceWithOutbox(db, repo, nil, skewTolerance)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	skewTolerance time.Duration,
) Service {
	if skewTolerance <= 0 {
		skewTolerance = DefaultSkewTolerance
	}
	return &service{
		db:            db,
		repo:          repo,
		outbox:        outboxRepo,
		skewTolerance: skewTolerance,
		logger:        zap.L().Named("attendance.service"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CheckIn(ctx context.Context, orgID, subjectID string, req CheckInRequest) (AttendanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("check-in requested",
		zap.String("request_id", rid),
		zap.String("org_id", orgID),
		zap.String("subject_id", subjectID),
		zap.String("event_id", req.EventID),
		zap.String("method", req.Method),
	)

	orgUUID, err := uuid.Parse(orgID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidOrgID
	}
	subjectUUID, err := uuid.Parse(subjectID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidSubjectID
	}
	eventUUID, err := uuid.Parse(req.EventID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEventID
	}
	var sessionUUID *uuid.UUID
	if req.SessionID != nil {
		parsed, err := uuid.Parse(*req.SessionID)
		if err != nil {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidSessionID
		}
		sessionUUID = &parsed
	}
	if err := req.ValidateMethod(); err != nil {
		s.logger.Warn("check-in method payload invalid",
			zap.String("method", req.Method),
			zap.String("subject_id", subjectID),
		)
		return AttendanceResponse{}, err
	}

	now := s.now()
	checkInTime, err := s.resolveTimestamp(req.Timestamp, now)
	if err != nil {
		return AttendanceResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("check-in begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Idempotent replay: the same offline submission must never create a
	// second record.
	if req.OfflineID != nil && *req.OfflineID != "" {
		existing, err := qtx.FindByOfflineID(ctx, orgID, *req.OfflineID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, err
		}
		if err == nil {
			s.logger.Info("check-in replayed, returning existing record",
				zap.String("offline_id", *req.OfflineID),
				zap.String("record_id", existing.ID.String()),
			)
			return mapToResponse(*existing), nil
		}
	}

	open, err := qtx.FindOpenRecord(ctx, orgID, req.EventID, req.SessionID, subjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if err == nil && open != nil {
		s.logger.Warn("check-in rejected, subject already present",
			zap.String("subject_id", subjectID),
			zap.String("event_id", req.EventID),
		)
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedIn
	}

	row := &AttendanceRecord{
		ID:          uuid.New(),
		OrgID:       orgUUID,
		EventID:     eventUUID,
		SessionID:   sessionUUID,
		SubjectID:   subjectUUID,
		Method:      req.Method,
		CheckInTime: checkInTime,
		OfflineID:   req.OfflineID,
		DeviceInfo:  req.DeviceInfo,
		Notes:       req.Notes,
		RecordedAt:  now,
	}

	if err := qtx.Create(ctx, row); err != nil {
		mapped := mapRepositoryError(err)
		if isDuplicateOfflineID(mapped) && req.OfflineID != nil {
			// Lost a replay race; whoever won persisted the same submission.
			existing, findErr := s.repo.FindByOfflineID(ctx, orgID, *req.OfflineID)
			if findErr == nil {
				return mapToResponse(*existing), nil
			}
		}
		if errors.Is(mapped, attendanceerrors.ErrAlreadyCheckedIn) {
			return AttendanceResponse{}, mapped
		}
		s.logger.Error("check-in persist failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}

	if err := s.appendOutboxEvent(ctx, tx, rid, events.AttendanceCheckedIn, row); err != nil {
		return AttendanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("check-in commit failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("check-in success",
		zap.String("record_id", row.ID.String()),
		zap.String("subject_id", subjectID),
		zap.String("event_id", req.EventID),
		zap.String("method", req.Method),
	)
	return mapToResponse(*row), nil
}

func (s *service) CheckOut(ctx context.Context, orgID, subjectID string, req CheckOutRequest) (AttendanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("check-out requested",
		zap.String("request_id", rid),
		zap.String("org_id", orgID),
		zap.String("subject_id", subjectID),
		zap.String("event_id", req.EventID),
	)

	if _, err := uuid.Parse(orgID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidOrgID
	}
	if _, err := uuid.Parse(subjectID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidSubjectID
	}
	if _, err := uuid.Parse(req.EventID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEventID
	}
	if req.SessionID != nil {
		if _, err := uuid.Parse(*req.SessionID); err != nil {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidSessionID
		}
	}

	now := s.now()
	checkOutTime, err := s.resolveTimestamp(req.Timestamp, now)
	if err != nil {
		return AttendanceResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("check-out begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindOpenRecord(ctx, orgID, req.EventID, req.SessionID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoOpenRecord
		}
		return AttendanceResponse{}, err
	}

	if checkOutTime.Before(row.CheckInTime) {
		s.logger.Warn("check-out before check-in rejected",
			zap.String("record_id", row.ID.String()),
			zap.Time("check_in_time", row.CheckInTime),
			zap.Time("check_out_time", checkOutTime),
		)
		return AttendanceResponse{}, attendanceerrors.ErrClockSkew
	}

	duration := int64(checkOutTime.Sub(row.CheckInTime).Seconds())
	row.CheckOutTime = &checkOutTime
	row.DurationSeconds = &duration
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("check-out persist failed", zap.String("record_id", row.ID.String()), zap.Error(err))
		return AttendanceResponse{}, err
	}

	if err := s.appendOutboxEvent(ctx, tx, rid, events.AttendanceCheckedOut, row); err != nil {
		return AttendanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("check-out commit failed", zap.String("request_id", rid), zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("check-out success",
		zap.String("record_id", row.ID.String()),
		zap.Int64("duration_seconds", duration),
	)
	return mapToResponse(*row), nil
}

func (s *service) FindByOfflineID(ctx context.Context, orgID, offlineID string) (AttendanceResponse, error) {
	row, err := s.repo.FindByOfflineID(ctx, orgID, offlineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrRecordNotFound
		}
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) ListByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceResponse, error) {
	rows, err := s.repo.FindAllByEventAndSubject(ctx, orgID, eventID, subjectID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetAll(ctx context.Context, orgID, actorID string, canReadAll bool) ([]AttendanceResponse, error) {
	var (
		rows []AttendanceRecord
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAllByOrg(ctx, orgID)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, attendanceerrors.ErrInvalidSubjectID
		}
		rows, err = s.repo.FindAllByOrgAndSubject(ctx, orgID, actorID)
	}
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

// resolveTimestamp parses an optional client timestamp and rejects values
// more than skewTolerance ahead of server time.
func (s *service) resolveTimestamp(raw *string, now time.Time) (time.Time, error) {
	if raw == nil || *raw == "" {
		return now, nil
	}
	ts, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, attendanceerrors.ErrInvalidTimestampFormat
	}
	ts = ts.UTC()
	if ts.After(now.Add(s.skewTolerance)) {
		return time.Time{}, attendanceerrors.ErrInvalidTimestamp
	}
	return ts, nil
}

func (s *service) appendOutboxEvent(ctx context.Context, tx *sql.Tx, rid, eventType string, row *AttendanceRecord) error {
	if s.outbox == nil {
		return nil
	}

	var sessionID *string
	if row.SessionID != nil {
		v := row.SessionID.String()
		sessionID = &v
	}
	event := events.AttendanceRecordedEvent{
		EventType:  eventType,
		RecordID:   row.ID.String(),
		OrgID:      row.OrgID.String(),
		EventID:    row.EventID.String(),
		SessionID:  sessionID,
		SubjectID:  row.SubjectID.String(),
		Method:     row.Method,
		OccurredAt: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal attendance event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	outboxRepo := s.outbox.WithTx(tx)
	if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "attendance_record",
		AggregateID:   row.ID.String(),
		EventType:     eventType,
		Topic:         events.AttendanceLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("attendance outbox persist failed",
			zap.String("record_id", row.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func mapToResponse(a AttendanceRecord) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              a.ID.String(),
		OrgID:           a.OrgID.String(),
		EventID:         a.EventID.String(),
		SubjectID:       a.SubjectID.String(),
		Method:          a.Method,
		CheckInTime:     a.CheckInTime.Format(time.RFC3339),
		DurationSeconds: a.DurationSeconds,
		OfflineID:       a.OfflineID,
		Notes:           a.Notes,
		RecordedAt:      a.RecordedAt.Format(time.RFC3339),
	}
	if a.SessionID != nil {
		v := a.SessionID.String()
		resp.SessionID = &v
	}
	if a.CheckOutTime != nil {
		v := a.CheckOutTime.Format(time.RFC3339)
		resp.CheckOutTime = &v
	}
	return resp
}

func mapToListResponse(rows []AttendanceRecord) []AttendanceResponse {
	resp := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapToResponse(r)
	}
	return resp
}

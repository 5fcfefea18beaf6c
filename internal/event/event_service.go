package event

import (
	"context"
	"database/sql"
	"errors"
	"time"

	eventerrors "go-presence/internal/event/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=event_service.go -destination=mock/event_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, orgID, actorID string, req CreateEventRequest) (EventResponse, error)
	GetAll(ctx context.Context, orgID string) ([]EventResponse, error)
	GetByID(ctx context.Context, orgID, id string) (EventResponse, error)
	Update(ctx context.Context, orgID, id string, req UpdateEventRequest) (EventResponse, error)
	Delete(ctx context.Context, orgID, id string) error

	AddParticipant(ctx context.Context, orgID, eventID string, req AddParticipantRequest) (ParticipantResponse, error)
	RemoveParticipant(ctx context.Context, orgID, eventID, subjectID string) error
	ListParticipants(ctx context.Context, orgID, eventID string) ([]ParticipantResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository) Service {
	return &service{db: db, repo: repo, logger: zap.L().Named("event.service")}
}

func (s *service) Create(ctx context.Context, orgID, actorID string, req CreateEventRequest) (EventResponse, error) {
	s.logger.Debug("create event requested",
		zap.String("org_id", orgID),
		zap.String("actor_id", actorID),
		zap.String("title", req.Title),
	)

	orgUUID, err := uuid.Parse(orgID)
	if err != nil {
		return EventResponse{}, eventerrors.ErrInvalidOrgID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return EventResponse{}, eventerrors.ErrInvalidActorID
	}
	startTime, endTime, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return EventResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create event begin tx failed", zap.Error(err))
		return EventResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e := &Event{
		ID:          uuid.New(),
		OrgID:       orgUUID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   startTime,
		EndTime:     endTime,
		CreatedBy:   actorUUID,
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("create event persist failed", zap.Error(err))
		return EventResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("create event commit failed", zap.Error(err))
		return EventResponse{}, err
	}

	s.logger.Info("create event success",
		zap.String("event_id", e.ID.String()),
		zap.String("org_id", orgID),
	)
	return mapToResponse(*e), nil
}

func (s *service) GetAll(ctx context.Context, orgID string) ([]EventResponse, error) {
	rows, err := s.repo.FindAllByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := make([]EventResponse, len(rows))
	for i, e := range rows {
		resp[i] = mapToResponse(e)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, orgID, id string) (EventResponse, error) {
	e, err := s.repo.FindByIDAndOrg(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EventResponse{}, eventerrors.ErrEventNotFound
		}
		return EventResponse{}, err
	}
	return mapToResponse(*e), nil
}

func (s *service) Update(ctx context.Context, orgID, id string, req UpdateEventRequest) (EventResponse, error) {
	startTime, endTime, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return EventResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EventResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByIDAndOrg(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EventResponse{}, eventerrors.ErrEventNotFound
		}
		return EventResponse{}, err
	}

	e.Title = req.Title
	e.Description = req.Description
	e.Location = req.Location
	e.StartTime = startTime
	e.EndTime = endTime

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("update event persist failed", zap.String("event_id", id), zap.Error(err))
		return EventResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return EventResponse{}, err
	}

	s.logger.Info("update event success", zap.String("event_id", id))
	return mapToResponse(*e), nil
}

func (s *service) Delete(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Delete(ctx, orgID, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) AddParticipant(ctx context.Context, orgID, eventID string, req AddParticipantRequest) (ParticipantResponse, error) {
	orgUUID, err := uuid.Parse(orgID)
	if err != nil {
		return ParticipantResponse{}, eventerrors.ErrInvalidOrgID
	}
	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return ParticipantResponse{}, eventerrors.ErrInvalidEventID
	}
	subjectUUID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return ParticipantResponse{}, eventerrors.ErrInvalidSubjectID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ParticipantResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByIDAndOrg(ctx, orgID, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ParticipantResponse{}, eventerrors.ErrEventNotFound
		}
		return ParticipantResponse{}, err
	}

	p := &EventParticipant{
		EventID:   eventUUID,
		SubjectID: subjectUUID,
		OrgID:     orgUUID,
		AddedAt:   time.Now().UTC(),
	}
	if err := qtx.AddParticipant(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return ParticipantResponse{}, eventerrors.ErrParticipantAlreadyAdded
		}
		s.logger.Error("add participant persist failed",
			zap.String("event_id", eventID),
			zap.String("subject_id", req.SubjectID),
			zap.Error(err),
		)
		return ParticipantResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return ParticipantResponse{}, err
	}

	s.logger.Info("participant added",
		zap.String("event_id", eventID),
		zap.String("subject_id", req.SubjectID),
	)
	return ParticipantResponse{
		EventID:   eventID,
		SubjectID: req.SubjectID,
		AddedAt:   p.AddedAt.Format(time.RFC3339),
	}, nil
}

func (s *service) RemoveParticipant(ctx context.Context, orgID, eventID, subjectID string) error {
	err := s.repo.RemoveParticipant(ctx, orgID, eventID, subjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return eventerrors.ErrParticipantNotFound
	}
	return err
}

func (s *service) ListParticipants(ctx context.Context, orgID, eventID string) ([]ParticipantResponse, error) {
	if _, err := s.repo.FindByIDAndOrg(ctx, orgID, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, eventerrors.ErrEventNotFound
		}
		return nil, err
	}

	rows, err := s.repo.ListParticipants(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}
	resp := make([]ParticipantResponse, len(rows))
	for i, p := range rows {
		resp[i] = ParticipantResponse{
			EventID:   p.EventID.String(),
			SubjectID: p.SubjectID.String(),
			AddedAt:   p.AddedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func parseTimeRange(start, end string) (time.Time, time.Time, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, eventerrors.ErrInvalidTimeFormat
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, eventerrors.ErrInvalidTimeFormat
	}
	if !startTime.Before(endTime) {
		return time.Time{}, time.Time{}, eventerrors.ErrInvalidTimeRange
	}
	return startTime.UTC(), endTime.UTC(), nil
}

func mapToResponse(e Event) EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		OrgID:       e.OrgID.String(),
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime.Format(time.RFC3339),
		EndTime:     e.EndTime.Format(time.RFC3339),
		CreatedBy:   e.CreatedBy.String(),
	}
}

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sessionerrors "go-presence/internal/session/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Session lists are read on every dashboard refresh and every partial
// attendance computation, so GetByEvent is cached per event.
func eventCacheKey(orgID, eventID string) string {
	return fmt.Sprintf("sessions:event:%s:%s", orgID, eventID)
}

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, orgID string, req CreateSessionRequest) (SessionResponse, error)
	GetByEvent(ctx context.Context, orgID, eventID string) ([]SessionResponse, error)
	GetByID(ctx context.Context, orgID, id string) (SessionResponse, error)
	Update(ctx context.Context, orgID, id string, req UpdateSessionRequest) (SessionResponse, error)
	Delete(ctx context.Context, orgID, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client) Service {
	return &service{
		db:     db,
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: zap.L().Named("session.service"),
	}
}

func (s *service) Create(ctx context.Context, orgID string, req CreateSessionRequest) (SessionResponse, error) {
	orgUUID, err := uuid.Parse(orgID)
	if err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidOrgID
	}
	eventUUID, err := uuid.Parse(req.EventID)
	if err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidEventID
	}
	startTime, endTime, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return SessionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create session begin tx failed", zap.Error(err))
		return SessionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row := &Session{
		ID:         uuid.New(),
		OrgID:      orgUUID,
		EventID:    eventUUID,
		Title:      req.Title,
		StartTime:  startTime,
		EndTime:    endTime,
		IsRequired: req.IsRequired,
		SortOrder:  req.SortOrder,
	}

	if err := qtx.Create(ctx, row); err != nil {
		s.logger.Error("create session persist failed", zap.Error(err))
		return SessionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return SessionResponse{}, err
	}

	s.invalidateEventCache(ctx, orgID, req.EventID)
	s.logger.Info("create session success",
		zap.String("session_id", row.ID.String()),
		zap.String("event_id", req.EventID),
	)
	return mapToResponse(*row), nil
}

func (s *service) GetByEvent(ctx context.Context, orgID, eventID string) ([]SessionResponse, error) {
	cacheKey := eventCacheKey(orgID, eventID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp []SessionResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	// singleflight collapses concurrent misses into one query.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindAllByEvent(ctx, orgID, eventID)
		if err != nil {
			return nil, err
		}

		resp := make([]SessionResponse, len(rows))
		for i, row := range rows {
			resp[i] = mapToResponse(row)
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 30*time.Minute)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]SessionResponse), nil
}

func (s *service) GetByID(ctx context.Context, orgID, id string) (SessionResponse, error) {
	row, err := s.repo.FindByIDAndOrg(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, sessionerrors.ErrSessionNotFound
		}
		return SessionResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) Update(ctx context.Context, orgID, id string, req UpdateSessionRequest) (SessionResponse, error) {
	startTime, endTime, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return SessionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SessionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByIDAndOrg(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, sessionerrors.ErrSessionNotFound
		}
		return SessionResponse{}, err
	}

	row.Title = req.Title
	row.StartTime = startTime
	row.EndTime = endTime
	row.IsRequired = req.IsRequired
	row.SortOrder = req.SortOrder

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("update session persist failed", zap.String("session_id", id), zap.Error(err))
		return SessionResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return SessionResponse{}, err
	}

	s.invalidateEventCache(ctx, orgID, row.EventID.String())
	s.logger.Info("update session success", zap.String("session_id", id))
	return mapToResponse(*row), nil
}

func (s *service) Delete(ctx context.Context, orgID, id string) error {
	row, err := s.repo.FindByIDAndOrg(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sessionerrors.ErrSessionNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Delete(ctx, orgID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateEventCache(ctx, orgID, row.EventID.String())
	return nil
}

func (s *service) invalidateEventCache(ctx context.Context, orgID, eventID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, eventCacheKey(orgID, eventID)).Err(); err != nil {
		s.logger.Warn("invalidate session cache failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

func parseTimeRange(start, end string) (time.Time, time.Time, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, sessionerrors.ErrInvalidTimeFormat
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, sessionerrors.ErrInvalidTimeFormat
	}
	if !startTime.Before(endTime) {
		return time.Time{}, time.Time{}, sessionerrors.ErrInvalidTimeRange
	}
	return startTime.UTC(), endTime.UTC(), nil
}

func mapToResponse(row Session) SessionResponse {
	return SessionResponse{
		ID:         row.ID.String(),
		EventID:    row.EventID.String(),
		Title:      row.Title,
		StartTime:  row.StartTime.Format(time.RFC3339),
		EndTime:    row.EndTime.Format(time.RFC3339),
		IsRequired: row.IsRequired,
		SortOrder:  row.SortOrder,
	}
}

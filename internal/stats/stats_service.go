package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go-presence/internal/attendance"
	"go-presence/internal/event"
	"go-presence/internal/session"
	statserrors "go-presence/internal/stats/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds how stale a cached percentage may be. New check-ins
// also invalidate eagerly via the lifecycle consumer.
const DefaultCacheTTL = 30 * time.Second

func partialCacheKey(orgID, eventID, subjectID string) string {
	return fmt.Sprintf("stats:partial:%s:%s:%s", orgID, eventID, subjectID)
}

// EventSource, SessionSource and RecordSource are the slices of the event,
// session and attendance services this aggregator reads from.
type EventSource interface {
	GetByID(ctx context.Context, orgID, id string) (event.EventResponse, error)
}

type ParticipantSource interface {
	IsParticipant(ctx context.Context, orgID, eventID, subjectID string) (bool, error)
}

type SessionSource interface {
	GetByEvent(ctx context.Context, orgID, eventID string) ([]session.SessionResponse, error)
}

type RecordSource interface {
	ListByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]attendance.AttendanceResponse, error)
}

//go:generate mockgen -source=stats_service.go -destination=mock/stats_service_mock.go -package=mock
type Service interface {
	GetPartialAttendance(ctx context.Context, orgID, subjectID, eventID string) (PartialAttendanceResponse, error)
	InvalidatePartial(ctx context.Context, orgID, subjectID, eventID string) error
}

type service struct {
	events       EventSource
	participants ParticipantSource
	sessions     SessionSource
	records      RecordSource
	rdb          *redis.Client
	sf           *singleflight.Group
	cacheTTL     time.Duration
	logger       *zap.Logger
}

func NewService(
	events EventSource,
	participants ParticipantSource,
	sessions SessionSource,
	records RecordSource,
	rdb *redis.Client,
	cacheTTL time.Duration,
) Service {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &service{
		events:       events,
		participants: participants,
		sessions:     sessions,
		records:      records,
		rdb:          rdb,
		sf:           &singleflight.Group{},
		cacheTTL:     cacheTTL,
		logger:       zap.L().Named("stats.service"),
	}
}

func (s *service) GetPartialAttendance(ctx context.Context, orgID, subjectID, eventID string) (PartialAttendanceResponse, error) {
	if _, err := uuid.Parse(subjectID); err != nil {
		return PartialAttendanceResponse{}, statserrors.ErrInvalidSubjectID
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return PartialAttendanceResponse{}, statserrors.ErrInvalidEventID
	}

	cacheKey := partialCacheKey(orgID, eventID, subjectID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp PartialAttendanceResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		resp, err := s.compute(ctx, orgID, subjectID, eventID)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, s.cacheTTL)
			}
		}

		return resp, nil
	})

	if err != nil {
		return PartialAttendanceResponse{}, err
	}

	return v.(PartialAttendanceResponse), nil
}

// compute derives the breakdown from the session plan and the subject's
// records at read time. Nothing is persisted, so late offline replays are
// reflected on the next uncached read.
func (s *service) compute(ctx context.Context, orgID, subjectID, eventID string) (PartialAttendanceResponse, error) {
	// Surfacing a 404 for an unknown event is delegated to the event service.
	if _, err := s.events.GetByID(ctx, orgID, eventID); err != nil {
		return PartialAttendanceResponse{}, err
	}

	enrolled, err := s.participants.IsParticipant(ctx, orgID, eventID, subjectID)
	if err != nil {
		s.logger.Error("participant lookup failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return PartialAttendanceResponse{}, err
	}
	if !enrolled {
		return PartialAttendanceResponse{}, statserrors.ErrSubjectNotEnrolled
	}

	sessions, err := s.sessions.GetByEvent(ctx, orgID, eventID)
	if err != nil {
		return PartialAttendanceResponse{}, err
	}
	records, err := s.records.ListByEventAndSubject(ctx, orgID, eventID, subjectID)
	if err != nil {
		return PartialAttendanceResponse{}, err
	}

	// A session counts as attended once at least one check-in exists for it.
	// Checking out only adds duration, never attendance credit.
	type sessionFacts struct {
		attended bool
		duration int64
	}
	bySession := make(map[string]sessionFacts, len(records))
	for _, rec := range records {
		if rec.SessionID == nil {
			continue
		}
		facts := bySession[*rec.SessionID]
		facts.attended = true
		if rec.DurationSeconds != nil {
			facts.duration += *rec.DurationSeconds
		}
		bySession[*rec.SessionID] = facts
	}

	resp := PartialAttendanceResponse{
		SubjectID: subjectID,
		EventID:   eventID,
		Sessions:  make([]SessionAttendance, 0, len(sessions)),
	}
	for _, sess := range sessions {
		facts := bySession[sess.ID]
		resp.TotalSessions++
		if facts.attended {
			resp.AttendedSessions++
		}
		if sess.IsRequired {
			resp.RequiredSessions++
			if facts.attended {
				resp.AttendedRequiredSessions++
			}
		}
		resp.Sessions = append(resp.Sessions, SessionAttendance{
			SessionID:       sess.ID,
			Title:           sess.Title,
			IsRequired:      sess.IsRequired,
			Attended:        facts.attended,
			DurationSeconds: facts.duration,
		})
	}

	// An event without required sessions has nothing left to attend.
	if resp.RequiredSessions == 0 {
		resp.RequiredAttendancePercentage = 100
	} else {
		resp.RequiredAttendancePercentage = int(math.Round(
			100 * float64(resp.AttendedRequiredSessions) / float64(resp.RequiredSessions),
		))
	}

	return resp, nil
}

func (s *service) InvalidatePartial(ctx context.Context, orgID, subjectID, eventID string) error {
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Del(ctx, partialCacheKey(orgID, eventID, subjectID)).Err(); err != nil {
		s.logger.Warn("invalidate stats cache failed",
			zap.String("event_id", eventID),
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

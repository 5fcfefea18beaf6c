package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sessionerrors "go-presence/internal/session/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn         func(ctx context.Context, s *Session) error
	findByIDAndOrgFn func(ctx context.Context, orgID, id string) (*Session, error)
	findAllByEventFn func(ctx context.Context, orgID, eventID string) ([]Session, error)
	updateFn         func(ctx context.Context, s *Session) error
	deleteFn         func(ctx context.Context, orgID, id string) error
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, s *Session) error {
	return f.createFn(ctx, s)
}
func (f *fakeRepo) FindByIDAndOrg(ctx context.Context, orgID, id string) (*Session, error) {
	return f.findByIDAndOrgFn(ctx, orgID, id)
}
func (f *fakeRepo) FindAllByEvent(ctx context.Context, orgID, eventID string) ([]Session, error) {
	return f.findAllByEventFn(ctx, orgID, eventID)
}
func (f *fakeRepo) Update(ctx context.Context, s *Session) error { return f.updateFn(ctx, s) }
func (f *fakeRepo) Delete(ctx context.Context, orgID, id string) error {
	return f.deleteFn(ctx, orgID, id)
}

func TestService_GetByEvent_CacheHit(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	orgID := uuid.New().String()
	eventID := uuid.New().String()

	cached := []SessionResponse{{ID: uuid.New().String(), Title: "Morning block"}}
	jsonResp, _ := json.Marshal(cached)
	redisMock.ExpectGet(eventCacheKey(orgID, eventID)).SetVal(string(jsonResp))

	repo := &fakeRepo{
		findAllByEventFn: func(ctx context.Context, orgID, eventID string) ([]Session, error) {
			t.Fatal("cache hit must not touch the store")
			return nil, nil
		},
	}

	svc := NewService(db, repo, rdb)
	resp, err := svc.GetByEvent(context.Background(), orgID, eventID)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, "Morning block", resp[0].Title)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_GetByEvent_CacheMissFillsCache(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	orgID := uuid.New().String()
	eventID := uuid.New().String()

	rows := []Session{{
		ID:        uuid.New(),
		OrgID:     uuid.MustParse(orgID),
		EventID:   uuid.MustParse(eventID),
		Title:     "Afternoon block",
		StartTime: time.Now().UTC(),
		EndTime:   time.Now().UTC().Add(time.Hour),
	}}

	resp := make([]SessionResponse, len(rows))
	for i, row := range rows {
		resp[i] = mapToResponse(row)
	}
	jsonData, _ := json.Marshal(resp)

	redisMock.ExpectGet(eventCacheKey(orgID, eventID)).RedisNil()
	redisMock.ExpectSet(eventCacheKey(orgID, eventID), jsonData, 30*time.Minute).SetVal("OK")

	repo := &fakeRepo{
		findAllByEventFn: func(ctx context.Context, gotOrg, gotEvent string) ([]Session, error) {
			assert.Equal(t, orgID, gotOrg)
			assert.Equal(t, eventID, gotEvent)
			return rows, nil
		},
	}

	svc := NewService(db, repo, rdb)
	got, err := svc.GetByEvent(context.Background(), orgID, eventID)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Afternoon block", got[0].Title)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Create_InvalidTimeRange(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, &fakeRepo{}, nil)

	start := time.Now().UTC()
	_, err := svc.Create(context.Background(), uuid.New().String(), CreateSessionRequest{
		EventID:   uuid.New().String(),
		Title:     "Backwards",
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(-time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, sessionerrors.ErrInvalidTimeRange)
}

func TestService_Create_InvalidatesEventCache(t *testing.T) {
	db, sqlMock, _ := sqlmock.New()
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	orgID := uuid.New().String()
	eventID := uuid.New().String()

	repo := &fakeRepo{
		createFn: func(ctx context.Context, s *Session) error { return nil },
	}

	redisMock.ExpectDel(eventCacheKey(orgID, eventID)).SetVal(1)

	svc := NewService(db, repo, rdb)

	start := time.Now().UTC()
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
	_, err := svc.Create(context.Background(), orgID, CreateSessionRequest{
		EventID:    eventID,
		Title:      "Workshop",
		StartTime:  start.Format(time.RFC3339),
		EndTime:    start.Add(2 * time.Hour).Format(time.RFC3339),
		IsRequired: true,
	})
	assert.NoError(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_GetByID_NotFound(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{
		findByIDAndOrgFn: func(ctx context.Context, orgID, id string) (*Session, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewService(db, repo, nil)
	_, err := svc.GetByID(context.Background(), uuid.New().String(), uuid.New().String())
	assert.ErrorIs(t, err, sessionerrors.ErrSessionNotFound)
}

func TestService_GetByEvent_RepoError(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{
		findAllByEventFn: func(ctx context.Context, orgID, eventID string) ([]Session, error) {
			return nil, errors.New("db connection error")
		},
	}

	svc := NewService(db, repo, nil)
	_, err := svc.GetByEvent(context.Background(), uuid.New().String(), uuid.New().String())
	assert.Error(t, err)
}

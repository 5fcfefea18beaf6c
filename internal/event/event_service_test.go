package event

import (
	"context"
	"database/sql"
	"testing"
	"time"

	eventerrors "go-presence/internal/event/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn            func(ctx context.Context, e *Event) error
	findByIDAndOrgFn    func(ctx context.Context, orgID, id string) (*Event, error)
	findAllByOrgFn      func(ctx context.Context, orgID string) ([]Event, error)
	updateFn            func(ctx context.Context, e *Event) error
	deleteFn            func(ctx context.Context, orgID, id string) error
	addParticipantFn    func(ctx context.Context, p *EventParticipant) error
	removeParticipantFn func(ctx context.Context, orgID, eventID, subjectID string) error
	isParticipantFn     func(ctx context.Context, orgID, eventID, subjectID string) (bool, error)
	listParticipantsFn  func(ctx context.Context, orgID, eventID string) ([]EventParticipant, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, e *Event) error {
	return f.createFn(ctx, e)
}
func (f *fakeRepo) FindByIDAndOrg(ctx context.Context, orgID, id string) (*Event, error) {
	return f.findByIDAndOrgFn(ctx, orgID, id)
}
func (f *fakeRepo) FindAllByOrg(ctx context.Context, orgID string) ([]Event, error) {
	return f.findAllByOrgFn(ctx, orgID)
}
func (f *fakeRepo) Update(ctx context.Context, e *Event) error {
	return f.updateFn(ctx, e)
}
func (f *fakeRepo) Delete(ctx context.Context, orgID, id string) error {
	return f.deleteFn(ctx, orgID, id)
}
func (f *fakeRepo) AddParticipant(ctx context.Context, p *EventParticipant) error {
	return f.addParticipantFn(ctx, p)
}
func (f *fakeRepo) RemoveParticipant(ctx context.Context, orgID, eventID, subjectID string) error {
	return f.removeParticipantFn(ctx, orgID, eventID, subjectID)
}
func (f *fakeRepo) IsParticipant(ctx context.Context, orgID, eventID, subjectID string) (bool, error) {
	return f.isParticipantFn(ctx, orgID, eventID, subjectID)
}
func (f *fakeRepo) ListParticipants(ctx context.Context, orgID, eventID string) ([]EventParticipant, error) {
	return f.listParticipantsFn(ctx, orgID, eventID)
}

func TestService_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	orgID := uuid.New().String()
	actorID := uuid.New().String()
	start := time.Now().UTC()

	var saved Event
	repo := &fakeRepo{
		createFn: func(ctx context.Context, e *Event) error { saved = *e; return nil },
	}

	svc := NewService(db, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Create(context.Background(), orgID, actorID, CreateEventRequest{
		Title:     "Annual Conference",
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(8 * time.Hour).Format(time.RFC3339),
	})
	assert.NoError(t, err)
	assert.Equal(t, saved.ID.String(), resp.ID)
	assert.Equal(t, "Annual Conference", resp.Title)
	assert.Equal(t, actorID, saved.CreatedBy.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Create_InvalidTimeRange(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, &fakeRepo{})

	start := time.Now().UTC()
	_, err := svc.Create(context.Background(), uuid.New().String(), uuid.New().String(), CreateEventRequest{
		Title:     "Backwards",
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(-time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, eventerrors.ErrInvalidTimeRange)
}

func TestService_GetByID_NotFound(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{
		findByIDAndOrgFn: func(ctx context.Context, orgID, id string) (*Event, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewService(db, repo)
	_, err := svc.GetByID(context.Background(), uuid.New().String(), uuid.New().String())
	assert.ErrorIs(t, err, eventerrors.ErrEventNotFound)
}

func TestService_AddParticipant_Duplicate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	orgID := uuid.New().String()
	eventID := uuid.New().String()

	repo := &fakeRepo{
		findByIDAndOrgFn: func(ctx context.Context, gotOrg, id string) (*Event, error) {
			return &Event{ID: uuid.MustParse(eventID)}, nil
		},
		addParticipantFn: func(ctx context.Context, p *EventParticipant) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "event_participants_pkey"}
		},
	}

	svc := NewService(db, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.AddParticipant(context.Background(), orgID, eventID, AddParticipantRequest{
		SubjectID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, eventerrors.ErrParticipantAlreadyAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ListParticipants_EventMissing(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeRepo{
		findByIDAndOrgFn: func(ctx context.Context, orgID, id string) (*Event, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewService(db, repo)
	_, err := svc.ListParticipants(context.Background(), uuid.New().String(), uuid.New().String())
	assert.ErrorIs(t, err, eventerrors.ErrEventNotFound)
}

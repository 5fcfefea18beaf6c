package attendance

import (
	"context"
	"database/sql"
	"testing"
	"time"

	attendanceerrors "go-presence/internal/attendance/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn                   func(ctx context.Context, a *AttendanceRecord) error
	updateFn                   func(ctx context.Context, a *AttendanceRecord) error
	findOpenRecordFn           func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error)
	findByOfflineIDFn          func(ctx context.Context, orgID, offlineID string) (*AttendanceRecord, error)
	findAllByEventAndSubjectFn func(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceRecord, error)
	findAllByOrgFn             func(ctx context.Context, orgID string) ([]AttendanceRecord, error)
	findAllByOrgAndSubjectFn   func(ctx context.Context, orgID, subjectID string) ([]AttendanceRecord, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, a *AttendanceRecord) error {
	return f.createFn(ctx, a)
}
func (f *fakeRepo) Update(ctx context.Context, a *AttendanceRecord) error {
	return f.updateFn(ctx, a)
}
func (f *fakeRepo) FindOpenRecord(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
	return f.findOpenRecordFn(ctx, orgID, eventID, sessionID, subjectID)
}
func (f *fakeRepo) FindByOfflineID(ctx context.Context, orgID, offlineID string) (*AttendanceRecord, error) {
	return f.findByOfflineIDFn(ctx, orgID, offlineID)
}
func (f *fakeRepo) FindAllByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceRecord, error) {
	return f.findAllByEventAndSubjectFn(ctx, orgID, eventID, subjectID)
}
func (f *fakeRepo) FindAllByOrg(ctx context.Context, orgID string) ([]AttendanceRecord, error) {
	return f.findAllByOrgFn(ctx, orgID)
}
func (f *fakeRepo) FindAllByOrgAndSubject(ctx context.Context, orgID, subjectID string) ([]AttendanceRecord, error) {
	return f.findAllByOrgAndSubjectFn(ctx, orgID, subjectID)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		createFn: func(ctx context.Context, a *AttendanceRecord) error { return nil },
		updateFn: func(ctx context.Context, a *AttendanceRecord) error { return nil },
		findOpenRecordFn: func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
			return nil, gorm.ErrRecordNotFound
		},
		findByOfflineIDFn: func(ctx context.Context, orgID, offlineID string) (*AttendanceRecord, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
}

func TestService_CheckInAndCheckOut(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	orgID := uuid.New().String()
	subjectID := uuid.New().String()
	eventID := uuid.New().String()
	ctx := context.Background()

	var saved AttendanceRecord
	repo := newFakeRepo()
	repo.createFn = func(ctx context.Context, a *AttendanceRecord) error { saved = *a; return nil }
	repo.updateFn = func(ctx context.Context, a *AttendanceRecord) error { saved = *a; return nil }
	repo.findOpenRecordFn = func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
		if saved.ID == uuid.Nil || saved.CheckOutTime != nil {
			return nil, gorm.ErrRecordNotFound
		}
		open := saved
		return &open, nil
	}

	svc := NewService(db, repo, 0).(*service)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	mock.ExpectBegin()
	mock.ExpectCommit()
	inResp, err := svc.CheckIn(ctx, orgID, subjectID, CheckInRequest{
		EventID: eventID,
		Method:  MethodManual,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, inResp.ID)
	assert.Equal(t, base.Format(time.RFC3339), inResp.CheckInTime)
	assert.Nil(t, inResp.CheckOutTime)

	svc.now = func() time.Time { return base.Add(90 * time.Minute) }

	mock.ExpectBegin()
	mock.ExpectCommit()
	outResp, err := svc.CheckOut(ctx, orgID, subjectID, CheckOutRequest{EventID: eventID})
	assert.NoError(t, err)
	assert.NotNil(t, outResp.CheckOutTime)
	assert.NotNil(t, outResp.DurationSeconds)
	assert.Equal(t, int64(5400), *outResp.DurationSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckIn_AlreadyCheckedIn(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	orgID := uuid.New().String()
	subjectID := uuid.New().String()
	eventID := uuid.New().String()

	repo := newFakeRepo()
	repo.findOpenRecordFn = func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
		return &AttendanceRecord{ID: uuid.New(), CheckInTime: time.Now().UTC()}, nil
	}

	svc := NewService(db, repo, 0)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.CheckIn(context.Background(), orgID, subjectID, CheckInRequest{
		EventID: eventID,
		Method:  MethodManual,
	})
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyCheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckIn_OfflineReplayReturnsExisting(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	orgID := uuid.New().String()
	subjectID := uuid.New().String()
	eventID := uuid.New().String()
	offlineID := "device-1:queue:42"

	existing := AttendanceRecord{
		ID:          uuid.New(),
		OrgID:       uuid.MustParse(orgID),
		EventID:     uuid.MustParse(eventID),
		SubjectID:   uuid.MustParse(subjectID),
		Method:      MethodQRCode,
		CheckInTime: time.Now().UTC().Add(-time.Hour),
		OfflineID:   &offlineID,
	}

	repo := newFakeRepo()
	repo.createFn = func(ctx context.Context, a *AttendanceRecord) error {
		t.Fatal("replayed submission must not create a second record")
		return nil
	}
	repo.findByOfflineIDFn = func(ctx context.Context, orgID, gotOfflineID string) (*AttendanceRecord, error) {
		assert.Equal(t, offlineID, gotOfflineID)
		return &existing, nil
	}

	svc := NewService(db, repo, 0)

	mock.ExpectBegin()
	mock.ExpectRollback()
	resp, err := svc.CheckIn(context.Background(), orgID, subjectID, CheckInRequest{
		EventID:   eventID,
		Method:    MethodQRCode,
		QRCode:    &QRCodePayload{Token: "tok"},
		OfflineID: &offlineID,
	})
	assert.NoError(t, err)
	assert.Equal(t, existing.ID.String(), resp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckIn_FutureTimestampRejected(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := newFakeRepo()
	svc := NewService(db, repo, 5*time.Minute).(*service)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	future := base.Add(10 * time.Minute).Format(time.RFC3339)
	_, err := svc.CheckIn(context.Background(), uuid.New().String(), uuid.New().String(), CheckInRequest{
		EventID:   uuid.New().String(),
		Method:    MethodManual,
		Timestamp: &future,
	})
	assert.ErrorIs(t, err, attendanceerrors.ErrInvalidTimestamp)

	// Inside tolerance passes validation and reaches the store.
	nearFuture := base.Add(3 * time.Minute).Format(time.RFC3339)
	_, err = svc.CheckIn(context.Background(), uuid.New().String(), uuid.New().String(), CheckInRequest{
		EventID:   uuid.New().String(),
		Method:    MethodManual,
		Timestamp: &nearFuture,
	})
	assert.NotErrorIs(t, err, attendanceerrors.ErrInvalidTimestamp)
}

func TestService_CheckIn_MethodPayloadRequired(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, newFakeRepo(), 0)

	cases := []struct {
		name string
		req  CheckInRequest
		want error
	}{
		{
			name: "qr code without token",
			req:  CheckInRequest{Method: MethodQRCode},
			want: attendanceerrors.ErrInvalidMethodPayload,
		},
		{
			name: "geolocation without coordinates",
			req:  CheckInRequest{Method: MethodGeolocation, Geolocation: &GeolocationPayload{}},
			want: attendanceerrors.ErrInvalidMethodPayload,
		},
		{
			name: "unknown method",
			req:  CheckInRequest{Method: "telepathy"},
			want: attendanceerrors.ErrInvalidMethod,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.EventID = uuid.New().String()
			_, err := svc.CheckIn(context.Background(), uuid.New().String(), uuid.New().String(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestService_CheckOut_NoOpenRecord(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, newFakeRepo(), 0)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.CheckOut(context.Background(), uuid.New().String(), uuid.New().String(), CheckOutRequest{
		EventID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, attendanceerrors.ErrNoOpenRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckOut_BeforeCheckInRejected(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	repo := newFakeRepo()
	repo.findOpenRecordFn = func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
		return &AttendanceRecord{ID: uuid.New(), CheckInTime: base}, nil
	}

	svc := NewService(db, repo, 0).(*service)
	svc.now = func() time.Time { return base }

	earlier := base.Add(-30 * time.Minute).Format(time.RFC3339)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.CheckOut(context.Background(), uuid.New().String(), uuid.New().String(), CheckOutRequest{
		EventID:   uuid.New().String(),
		Timestamp: &earlier,
	})
	assert.ErrorIs(t, err, attendanceerrors.ErrClockSkew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckOut_PreservesOfflineTimestamp(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	captured := base.Add(45 * time.Minute)

	var updated AttendanceRecord
	repo := newFakeRepo()
	repo.findOpenRecordFn = func(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
		return &AttendanceRecord{ID: uuid.New(), CheckInTime: base}, nil
	}
	repo.updateFn = func(ctx context.Context, a *AttendanceRecord) error { updated = *a; return nil }

	svc := NewService(db, repo, 0).(*service)
	// Server time is hours past the capture; the stored time must stay the
	// device's, not the sync's.
	svc.now = func() time.Time { return base.Add(6 * time.Hour) }

	ts := captured.Format(time.RFC3339)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.CheckOut(context.Background(), uuid.New().String(), uuid.New().String(), CheckOutRequest{
		EventID:   uuid.New().String(),
		Timestamp: &ts,
	})
	assert.NoError(t, err)
	assert.Equal(t, captured, *updated.CheckOutTime)
	assert.Equal(t, int64(2700), *resp.DurationSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package attendance

import (
	"context"
	"database/sql"

	"go-presence/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *AttendanceRecord) error
	Update(ctx context.Context, a *AttendanceRecord) error
	FindOpenRecord(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error)
	FindByOfflineID(ctx context.Context, orgID, offlineID string) (*AttendanceRecord, error)
	FindAllByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceRecord, error)
	FindAllByOrg(ctx context.Context, orgID string) ([]AttendanceRecord, error)
	FindAllByOrgAndSubject(ctx context.Context, orgID, subjectID string) ([]AttendanceRecord, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, a *AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) Update(ctx context.Context, a *AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// FindOpenRecord looks up the single not-yet-closed record for the
// (event/session, subject) key. A nil sessionID means event-level attendance.
func (r *repository) FindOpenRecord(ctx context.Context, orgID, eventID string, sessionID *string, subjectID string) (*AttendanceRecord, error) {
	q := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ?", eventID).
		Where("subject_id = ?", subjectID).
		Where("check_out_time IS NULL")

	if sessionID != nil {
		q = q.Where("session_id = ?", *sessionID)
	} else {
		q = q.Where("session_id IS NULL")
	}

	var a AttendanceRecord
	if err := q.First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindByOfflineID(ctx context.Context, orgID, offlineID string) (*AttendanceRecord, error) {
	var a AttendanceRecord
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("offline_id = ?", offlineID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindAllByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]AttendanceRecord, error) {
	var rows []AttendanceRecord
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ?", eventID).
		Where("subject_id = ?", subjectID).
		Order("check_in_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByOrg(ctx context.Context, orgID string) ([]AttendanceRecord, error) {
	var rows []AttendanceRecord
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Order("check_in_time DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByOrgAndSubject(ctx context.Context, orgID, subjectID string) ([]AttendanceRecord, error) {
	var rows []AttendanceRecord
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("subject_id = ?", subjectID).
		Order("check_in_time DESC").
		Find(&rows).Error
	return rows, err
}

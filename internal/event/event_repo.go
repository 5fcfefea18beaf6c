package event

import (
	"context"
	"database/sql"

	"go-presence/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=event_repo.go -destination=mock/event_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Event) error
	FindByIDAndOrg(ctx context.Context, orgID, id string) (*Event, error)
	FindAllByOrg(ctx context.Context, orgID string) ([]Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, orgID, id string) error

	AddParticipant(ctx context.Context, p *EventParticipant) error
	RemoveParticipant(ctx context.Context, orgID, eventID, subjectID string) error
	IsParticipant(ctx context.Context, orgID, eventID, subjectID string) (bool, error)
	ListParticipants(ctx context.Context, orgID, eventID string) ([]EventParticipant, error)
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

func (r *repository) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindByIDAndOrg(ctx context.Context, orgID, id string) (*Event, error) {
	var e Event
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindAllByOrg(ctx context.Context, orgID string) ([]Event, error) {
	var rows []Event
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Order("start_time DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Delete(&Event{}, "id = ?", id).Error
}

func (r *repository) AddParticipant(ctx context.Context, p *EventParticipant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) RemoveParticipant(ctx context.Context, orgID, eventID, subjectID string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ? AND subject_id = ?", eventID, subjectID).
		Delete(&EventParticipant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) IsParticipant(ctx context.Context, orgID, eventID, subjectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&EventParticipant{}).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ? AND subject_id = ?", eventID, subjectID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListParticipants(ctx context.Context, orgID, eventID string) ([]EventParticipant, error) {
	var rows []EventParticipant
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ?", eventID).
		Order("added_at ASC").
		Find(&rows).Error
	return rows, err
}

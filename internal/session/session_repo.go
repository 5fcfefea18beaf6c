package session

import (
	"context"
	"database/sql"

	"go-presence/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=session_repo.go -destination=mock/session_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, s *Session) error
	FindByIDAndOrg(ctx context.Context, orgID, id string) (*Session, error)
	FindAllByEvent(ctx context.Context, orgID, eventID string) ([]Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, orgID, id string) error
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

func (r *repository) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindByIDAndOrg(ctx context.Context, orgID, id string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindAllByEvent(ctx context.Context, orgID, eventID string) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("event_id = ?", eventID).
		Order("sort_order ASC, start_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(orgID)).
		Delete(&Session{}, "id = ?", id).Error
}

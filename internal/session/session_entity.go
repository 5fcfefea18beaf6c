package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Session struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrgID      uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index"`
	EventID    uuid.UUID      `gorm:"column:event_id;type:uuid;not null;index"`
	Title      string         `gorm:"column:title;type:varchar(200);not null"`
	StartTime  time.Time      `gorm:"column:start_time;type:timestamptz;not null"`
	EndTime    time.Time      `gorm:"column:end_time;type:timestamptz;not null"`
	IsRequired bool           `gorm:"column:is_required;not null;default:false"`
	SortOrder  int            `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Session) TableName() string {
	return "event_sessions"
}

package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrgID       uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index"`
	Title       string         `gorm:"column:title;type:varchar(200);not null"`
	Description *string        `gorm:"column:description;type:text"`
	Location    *string        `gorm:"column:location;type:varchar(200)"`
	StartTime   time.Time      `gorm:"column:start_time;type:timestamptz;not null"`
	EndTime     time.Time      `gorm:"column:end_time;type:timestamptz;not null"`
	CreatedBy   uuid.UUID      `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Event) TableName() string {
	return "events"
}

type EventParticipant struct {
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	SubjectID uuid.UUID `gorm:"column:subject_id;type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	AddedAt   time.Time `gorm:"column:added_at"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}

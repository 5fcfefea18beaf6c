package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceRecord is an immutable attendance fact. It is written once on
// check-in, closed once on check-out, and never hard-deleted; a new record is
// appended when the subject re-enters for another session.
type AttendanceRecord struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrgID           uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index"`
	EventID         uuid.UUID      `gorm:"column:event_id;type:uuid;not null;index"`
	SessionID       *uuid.UUID     `gorm:"column:session_id;type:uuid;index"`
	SubjectID       uuid.UUID      `gorm:"column:subject_id;type:uuid;not null;index"`
	Method          string         `gorm:"column:method;type:varchar(20);not null"`
	CheckInTime     time.Time      `gorm:"column:check_in_time;type:timestamptz;not null"`
	CheckOutTime    *time.Time     `gorm:"column:check_out_time;type:timestamptz"`
	DurationSeconds *int64         `gorm:"column:duration_seconds"`
	OfflineID       *string        `gorm:"column:offline_id;type:varchar(64);uniqueIndex:uq_attendance_offline"`
	DeviceInfo      *string        `gorm:"column:device_info;type:varchar(200)"`
	Notes           *string        `gorm:"column:notes;type:text"`
	RecordedAt      time.Time      `gorm:"column:recorded_at;type:timestamptz;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsOpen reports whether the subject is still checked in on this record.
func (a AttendanceRecord) IsOpen() bool {
	return a.CheckOutTime == nil
}

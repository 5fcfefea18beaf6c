package events

import "time"

const AttendanceLifecycleTopic = "presence.attendance.lifecycle.v1"

const (
	AttendanceCheckedIn  = "attendance.checked_in"
	AttendanceCheckedOut = "attendance.checked_out"
)

// AttendanceRecordedEvent notifies downstream consumers (dashboards,
// analytics) that an attendance record changed. Delivery is at-least-once;
// consumers recompute, they never apply deltas.
type AttendanceRecordedEvent struct {
	EventType  string    `json:"event_type"`
	RecordID   string    `json:"record_id"`
	OrgID      string    `json:"org_id"`
	EventID    string    `json:"event_id"`
	SessionID  *string   `json:"session_id,omitempty"`
	SubjectID  string    `json:"subject_id"`
	Method     string    `json:"method"`
	OccurredAt time.Time `json:"occurred_at"`
}

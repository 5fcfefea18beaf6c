package stats

// SessionAttendance is the per-session breakdown the presence dashboard
// renders next to the totals.
type SessionAttendance struct {
	SessionID       string `json:"session_id"`
	Title           string `json:"title"`
	IsRequired      bool   `json:"is_required"`
	Attended        bool   `json:"attended"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// PartialAttendanceResponse is derived on read and never persisted, so it is
// always consistent with the records at read time (modulo the cache window).
type PartialAttendanceResponse struct {
	SubjectID                    string              `json:"subject_id"`
	EventID                      string              `json:"event_id"`
	TotalSessions                int                 `json:"total_sessions"`
	AttendedSessions             int                 `json:"attended_sessions"`
	RequiredSessions             int                 `json:"required_sessions"`
	AttendedRequiredSessions     int                 `json:"attended_required_sessions"`
	RequiredAttendancePercentage int                 `json:"required_attendance_percentage"`
	Sessions                     []SessionAttendance `json:"sessions"`
}

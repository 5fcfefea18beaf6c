package sync

import "go-presence/internal/attendance"

const (
	KindCheckIn  = "check_in"
	KindCheckOut = "check_out"
)

const (
	OutcomeConfirmed        = "confirmed"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeConflict         = "conflict"
	// OutcomeFailed marks a transient storage failure; the client keeps the
	// submission queued and retries. All other outcomes are terminal.
	OutcomeFailed = "failed"
)

// OfflineSubmission is one queued attendance intent captured while the
// device was disconnected. Timestamp is the original capture time.
type OfflineSubmission struct {
	OfflineID  string  `json:"offline_id" binding:"required"`
	Kind       string  `json:"kind" binding:"required"`
	EventID    string  `json:"event_id" binding:"required"`
	SessionID  *string `json:"session_id"`
	SubjectID  string  `json:"subject_id" binding:"required"`
	Method     string  `json:"method"`
	Timestamp  string  `json:"timestamp" binding:"required"`
	DeviceInfo *string `json:"device_info"`
	Notes      *string `json:"notes"`

	Geolocation *attendance.GeolocationPayload `json:"geolocation"`
	QRCode      *attendance.QRCodePayload      `json:"qr_code"`
	Biometric   *attendance.BiometricPayload   `json:"biometric"`
	NFC         *attendance.NFCPayload         `json:"nfc"`
}

type SyncRequest struct {
	Submissions []OfflineSubmission `json:"submissions" binding:"required"`
}

type SubmissionResult struct {
	OfflineID string  `json:"offline_id"`
	Outcome   string  `json:"outcome"`
	RecordID  *string `json:"record_id,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

type SyncBatchResponse struct {
	Results          []SubmissionResult `json:"results"`
	Confirmed        int                `json:"confirmed"`
	AlreadyProcessed int                `json:"already_processed"`
	Conflicts        int                `json:"conflicts"`
	Failed           int                `json:"failed"`
}

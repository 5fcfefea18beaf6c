package attendance

import (
	attendanceerrors "go-presence/internal/attendance/errors"
)

const (
	MethodQRCode      = "qr_code"
	MethodGeolocation = "geolocation"
	MethodManual      = "manual"
	MethodBiometric   = "biometric"
	MethodNFC         = "nfc"
)

// Per-method payloads. The method field selects which one must be present;
// loose option bags are rejected at the boundary.

type GeolocationPayload struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type QRCodePayload struct {
	Token string `json:"token" binding:"required"`
}

type BiometricPayload struct {
	TemplateRef string `json:"template_ref" binding:"required"`
}

type NFCPayload struct {
	TagID string `json:"tag_id" binding:"required"`
}

type CheckInRequest struct {
	EventID   string  `json:"event_id" binding:"required"`
	SessionID *string `json:"session_id"`
	Method    string  `json:"method" binding:"required"`

	// Timestamp is RFC3339. Empty means "now"; the offline reconciler always
	// sets it to the submission's original capture time.
	Timestamp  *string `json:"timestamp"`
	OfflineID  *string `json:"offline_id"`
	DeviceInfo *string `json:"device_info"`
	Notes      *string `json:"notes"`

	Geolocation *GeolocationPayload `json:"geolocation"`
	QRCode      *QRCodePayload      `json:"qr_code"`
	Biometric   *BiometricPayload   `json:"biometric"`
	NFC         *NFCPayload         `json:"nfc"`
}

// ValidateMethod enforces the tagged union: exactly the payload matching the
// method must be present.
func (r CheckInRequest) ValidateMethod() error {
	switch r.Method {
	case MethodManual:
		return nil
	case MethodQRCode:
		if r.QRCode == nil || r.QRCode.Token == "" {
			return attendanceerrors.ErrInvalidMethodPayload
		}
	case MethodGeolocation:
		if r.Geolocation == nil || r.Geolocation.Latitude == nil || r.Geolocation.Longitude == nil {
			return attendanceerrors.ErrInvalidMethodPayload
		}
	case MethodBiometric:
		if r.Biometric == nil || r.Biometric.TemplateRef == "" {
			return attendanceerrors.ErrInvalidMethodPayload
		}
	case MethodNFC:
		if r.NFC == nil || r.NFC.TagID == "" {
			return attendanceerrors.ErrInvalidMethodPayload
		}
	default:
		return attendanceerrors.ErrInvalidMethod
	}
	return nil
}

type CheckOutRequest struct {
	EventID   string  `json:"event_id" binding:"required"`
	SessionID *string `json:"session_id"`
	Timestamp *string `json:"timestamp"`
	Notes     *string `json:"notes"`
}

type AttendanceResponse struct {
	ID              string  `json:"id"`
	OrgID           string  `json:"org_id"`
	EventID         string  `json:"event_id"`
	SessionID       *string `json:"session_id,omitempty"`
	SubjectID       string  `json:"subject_id"`
	Method          string  `json:"method"`
	CheckInTime     string  `json:"check_in_time"`
	CheckOutTime    *string `json:"check_out_time,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds,omitempty"`
	OfflineID       *string `json:"offline_id,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	RecordedAt      string  `json:"recorded_at"`
}

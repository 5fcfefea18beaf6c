package sync

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-presence/internal/attendance"
	attendanceerrors "go-presence/internal/attendance/errors"
	"go-presence/internal/shared/apperror"
	"go-presence/internal/shared/contextutil"

	"go.uber.org/zap"
)

// Recorder is the slice of the attendance service the reconciler needs.
type Recorder interface {
	CheckIn(ctx context.Context, orgID, subjectID string, req attendance.CheckInRequest) (attendance.AttendanceResponse, error)
	CheckOut(ctx context.Context, orgID, subjectID string, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error)
	FindByOfflineID(ctx context.Context, orgID, offlineID string) (attendance.AttendanceResponse, error)
}

//go:generate mockgen -source=sync_service.go -destination=mock/sync_service_mock.go -package=mock
type Service interface {
	ReplayBatch(ctx context.Context, orgID string, submissions []OfflineSubmission) (SyncBatchResponse, error)
}

type service struct {
	recorder Recorder
	logger   *zap.Logger
}

func NewService(recorder Recorder) Service {
	return &service{
		recorder: recorder,
		logger:   zap.L().Named("sync.service"),
	}
}

// ReplayBatch applies queued offline submissions exactly once each. The batch
// is not atomic: one bad entry is downgraded to a per-submission outcome so it
// cannot block the rest of a day's queued check-ins.
func (s *service) ReplayBatch(ctx context.Context, orgID string, submissions []OfflineSubmission) (SyncBatchResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("replay batch requested",
		zap.String("request_id", rid),
		zap.String("org_id", orgID),
		zap.Int("submissions", len(submissions)),
	)

	// Timestamp order, not arrival order: a check-in must land before its
	// matching check-out even when the device uploaded them shuffled.
	ordered := make([]OfflineSubmission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, errI := time.Parse(time.RFC3339, ordered[i].Timestamp)
		tj, errJ := time.Parse(time.RFC3339, ordered[j].Timestamp)
		if errI != nil || errJ != nil {
			return false
		}
		return ti.Before(tj)
	})

	resp := SyncBatchResponse{Results: make([]SubmissionResult, 0, len(ordered))}
	seen := make(map[string]bool, len(ordered))

	for _, sub := range ordered {
		result := s.replayOne(ctx, orgID, sub, seen)
		switch result.Outcome {
		case OutcomeConfirmed:
			resp.Confirmed++
		case OutcomeAlreadyProcessed:
			resp.AlreadyProcessed++
		case OutcomeConflict:
			resp.Conflicts++
		case OutcomeFailed:
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}

	s.logger.Info("replay batch done",
		zap.String("request_id", rid),
		zap.Int("confirmed", resp.Confirmed),
		zap.Int("already_processed", resp.AlreadyProcessed),
		zap.Int("conflicts", resp.Conflicts),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func (s *service) replayOne(ctx context.Context, orgID string, sub OfflineSubmission, seen map[string]bool) SubmissionResult {
	if seen[sub.OfflineID] {
		return SubmissionResult{OfflineID: sub.OfflineID, Outcome: OutcomeAlreadyProcessed}
	}
	seen[sub.OfflineID] = true

	if _, err := time.Parse(time.RFC3339, sub.Timestamp); err != nil {
		return conflict(sub.OfflineID, "invalid timestamp, expected RFC3339")
	}

	// Persisted on an earlier sync? Then this replay is a no-op.
	if existing, err := s.recorder.FindByOfflineID(ctx, orgID, sub.OfflineID); err == nil {
		recordID := existing.ID
		return SubmissionResult{
			OfflineID: sub.OfflineID,
			Outcome:   OutcomeAlreadyProcessed,
			RecordID:  &recordID,
		}
	} else if !errors.Is(err, attendanceerrors.ErrRecordNotFound) {
		return failed(sub.OfflineID, err)
	}

	switch sub.Kind {
	case KindCheckIn:
		return s.replayCheckIn(ctx, orgID, sub)
	case KindCheckOut:
		return s.replayCheckOut(ctx, orgID, sub)
	default:
		return conflict(sub.OfflineID, "unknown submission kind")
	}
}

func (s *service) replayCheckIn(ctx context.Context, orgID string, sub OfflineSubmission) SubmissionResult {
	timestamp := sub.Timestamp
	offlineID := sub.OfflineID

	req := attendance.CheckInRequest{
		EventID:     sub.EventID,
		SessionID:   sub.SessionID,
		Method:      sub.Method,
		Timestamp:   &timestamp,
		OfflineID:   &offlineID,
		DeviceInfo:  sub.DeviceInfo,
		Notes:       sub.Notes,
		Geolocation: sub.Geolocation,
		QRCode:      sub.QRCode,
		Biometric:   sub.Biometric,
		NFC:         sub.NFC,
	}

	resp, err := s.recorder.CheckIn(ctx, orgID, sub.SubjectID, req)
	if err != nil {
		return s.mapReplayError(sub.OfflineID, err)
	}

	recordID := resp.ID
	return SubmissionResult{
		OfflineID: sub.OfflineID,
		Outcome:   OutcomeConfirmed,
		RecordID:  &recordID,
	}
}

func (s *service) replayCheckOut(ctx context.Context, orgID string, sub OfflineSubmission) SubmissionResult {
	timestamp := sub.Timestamp

	req := attendance.CheckOutRequest{
		EventID:   sub.EventID,
		SessionID: sub.SessionID,
		Timestamp: &timestamp,
		Notes:     sub.Notes,
	}

	resp, err := s.recorder.CheckOut(ctx, orgID, sub.SubjectID, req)
	if err != nil {
		return s.mapReplayError(sub.OfflineID, err)
	}

	recordID := resp.ID
	return SubmissionResult{
		OfflineID: sub.OfflineID,
		Outcome:   OutcomeConfirmed,
		RecordID:  &recordID,
	}
}

// mapReplayError downgrades client-correctable recorder errors to terminal
// per-submission outcomes; anything else is a transient failure the client
// retries.
func (s *service) mapReplayError(offlineID string, err error) SubmissionResult {
	if errors.Is(err, attendanceerrors.ErrAlreadyCheckedIn) ||
		errors.Is(err, attendanceerrors.ErrNoOpenRecord) ||
		errors.Is(err, attendanceerrors.ErrClockSkew) {
		return conflict(offlineID, err.Error())
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
		return conflict(offlineID, appErr.Message)
	}

	s.logger.Error("replay submission failed",
		zap.String("offline_id", offlineID),
		zap.Error(err),
	)
	return failed(offlineID, err)
}

func conflict(offlineID, reason string) SubmissionResult {
	return SubmissionResult{
		OfflineID: offlineID,
		Outcome:   OutcomeConflict,
		Reason:    &reason,
	}
}

func failed(offlineID string, err error) SubmissionResult {
	reason := err.Error()
	return SubmissionResult{
		OfflineID: offlineID,
		Outcome:   OutcomeFailed,
		Reason:    &reason,
	}
}

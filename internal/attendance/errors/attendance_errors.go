package attendanceerrors

import (
	"net/http"

	"go-presence/internal/shared/apperror"
)

var (
	ErrInvalidOrgID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid org id",
		http.StatusBadRequest,
	)
	ErrInvalidSubjectID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid subject id",
		http.StatusBadRequest,
	)
	ErrInvalidEventID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid event id",
		http.StatusBadRequest,
	)
	ErrInvalidSessionID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid session id",
		http.StatusBadRequest,
	)
	ErrInvalidTimestampFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timestamp, expected RFC3339",
		http.StatusBadRequest,
	)
	ErrInvalidTimestamp = apperror.New(
		apperror.CodeInvalidInput,
		"timestamp is too far in the future",
		http.StatusBadRequest,
	)
	ErrInvalidMethod = apperror.New(
		apperror.CodeInvalidInput,
		"unknown attendance method",
		http.StatusBadRequest,
	)
	ErrInvalidMethodPayload = apperror.New(
		apperror.CodeInvalidInput,
		"missing or incomplete payload for attendance method",
		http.StatusBadRequest,
	)
	ErrAlreadyCheckedIn = apperror.New(
		apperror.CodeConflict,
		"subject is already checked in",
		http.StatusConflict,
	)
	ErrNoOpenRecord = apperror.New(
		apperror.CodeInvalidState,
		"no open attendance record to check out",
		http.StatusBadRequest,
	)
	ErrClockSkew = apperror.New(
		apperror.CodeInvalidInput,
		"check-out time is before check-in time",
		http.StatusBadRequest,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance record not found",
		http.StatusNotFound,
	)
)

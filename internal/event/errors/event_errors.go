package eventerrors

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
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEventID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid event id",
		http.StatusBadRequest,
	)
	ErrInvalidSubjectID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid subject id",
		http.StatusBadRequest,
	)
	ErrInvalidTimeFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid time format, expected RFC3339",
		http.StatusBadRequest,
	)
	ErrInvalidTimeRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_time must be before end_time",
		http.StatusBadRequest,
	)
	ErrEventNotFound = apperror.New(
		apperror.CodeNotFound,
		"event not found",
		http.StatusNotFound,
	)
	ErrParticipantAlreadyAdded = apperror.New(
		apperror.CodeConflict,
		"subject is already a participant of this event",
		http.StatusConflict,
	)
	ErrParticipantNotFound = apperror.New(
		apperror.CodeNotFound,
		"participant not found for this event",
		http.StatusNotFound,
	)
)

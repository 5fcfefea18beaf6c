package statserrors

import (
	"net/http"

	"go-presence/internal/shared/apperror"
)

var (
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
	ErrSubjectNotEnrolled = apperror.New(
		apperror.CodeForbidden,
		"subject is not a participant of this event",
		http.StatusForbidden,
	)
)

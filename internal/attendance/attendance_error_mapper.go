package attendance

import (
	"errors"

	attendanceerrors "go-presence/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uq_attendance_open is the partial unique index on
// (org_id, event_id, session_id, subject_id) WHERE check_out_time IS NULL.
// It is the transactional guard against two concurrent check-ins on the same
// key: the loser of the race hits 23505 instead of creating a second open
// record.
const (
	constraintOpenRecord = "uq_attendance_open"
	constraintOfflineID  = "uq_attendance_offline"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendanceerrors.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case constraintOpenRecord:
			return attendanceerrors.ErrAlreadyCheckedIn
		case constraintOfflineID:
			return errDuplicateOfflineID
		}
	}

	return err
}

// errDuplicateOfflineID is internal: CheckIn turns it into an idempotent
// return of the already-persisted record, never a client error.
var errDuplicateOfflineID = errors.New("duplicate offline id")

func isDuplicateOfflineID(err error) bool {
	return errors.Is(err, errDuplicateOfflineID)
}

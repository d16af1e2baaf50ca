package tracking

import (
	"errors"
	"strings"

	trackingerrors "github.com/coding-cat0-0/tracker/internal/tracking/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapSessionCreateError translates a Postgres unique violation on the
// (employee, work_date) index into the Conflict the caller expects when two
// start requests race past the existence check.
func mapSessionCreateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_tracking_sessions_employee_date" {
			return trackingerrors.ErrSessionAlreadyActive
		}
		return err
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_tracking_sessions_employee_date") {
		return trackingerrors.ErrSessionAlreadyActive
	}
	return err
}

package trackingerrors

import (
	"net/http"

	"github.com/coding-cat0-0/tracker/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrSessionAlreadyActive = apperror.New(
		apperror.CodeConflict,
		"tracking is already running for today",
		http.StatusConflict,
	)
	ErrNoActiveSession = apperror.New(
		apperror.CodeNotFound,
		"no active tracking session for today",
		http.StatusNotFound,
	)
)

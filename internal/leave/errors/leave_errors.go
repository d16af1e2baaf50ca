package leaveerrors

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
	ErrInvalidReason = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be one of CASUAL, SICK, OTHER",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of PENDING, ACCEPTED, REJECTED",
		http.StatusBadRequest,
	)
	ErrApplicationNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave application not found",
		http.StatusNotFound,
	)
	ErrApplicationNotPending = apperror.New(
		apperror.CodeInvalidState,
		"only pending applications can be withdrawn",
		http.StatusBadRequest,
	)
)

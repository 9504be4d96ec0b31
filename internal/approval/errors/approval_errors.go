package approvalerrors

import (
	"net/http"

	"people-desk/internal/shared/apperror"
)

const (
	CodeCEODecisionRequired = "CEO_DECISION_REQUIRED"
	CodeAlreadyDecided      = "ALREADY_DECIDED"
	CodeConcurrentDecision  = "CONCURRENT_DECISION"
)

var (
	ErrInvalidKind = apperror.New(
		apperror.CodeInvalidInput,
		"invalid request kind",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid request id",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidStage = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approval stage",
		http.StatusBadRequest,
	)
	ErrInvalidScope = apperror.New(
		apperror.CodeInvalidInput,
		"scope must be today or all",
		http.StatusBadRequest,
	)
	ErrInvalidTimezone = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timezone",
		http.StatusBadRequest,
	)
	ErrInvalidMonth = apperror.New(
		apperror.CodeInvalidInput,
		"month must be YYYY-MM",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidTimeFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid time format, expected HH:MM",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"from_date must be before or equal to_date",
		http.StatusBadRequest,
	)
	ErrInvalidTimeRange = apperror.New(
		apperror.CodeInvalidInput,
		"from_time must be before to_time",
		http.StatusBadRequest,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"request not found",
		http.StatusNotFound,
	)
	ErrCEODecisionRequired = apperror.Precondition(
		CodeCEODecisionRequired,
		"CEO must decide first",
	)
	ErrAlreadyDecided = apperror.Precondition(
		CodeAlreadyDecided,
		"request has already been decided at this stage",
	)
	ErrConcurrentDecision = apperror.Precondition(
		CodeConcurrentDecision,
		"request was changed by another approver, reload and retry",
	)
)

// IsPrecondition reports whether err is one of the ordering-rule violations.
func IsPrecondition(err error) bool {
	return apperror.IsPrecondition(err)
}

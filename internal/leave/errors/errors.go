package leaveerrors

import (
	"net/http"

	"github.com/S-YED/LMS-sub000/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidApproverID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid approver id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrApproverNotFound = apperror.New(
		apperror.CodeNotFound,
		"approver not found",
		http.StatusNotFound,
	)
	ErrValidationFailed = apperror.New(
		apperror.CodeValidationFailed,
		"leave request failed validation",
		http.StatusUnprocessableEntity,
	)
	ErrSelfApproval = apperror.New(
		apperror.CodeForbidden,
		"an employee cannot decide their own leave request",
		http.StatusForbidden,
	)
	ErrUnauthorizedApprover = apperror.New(
		apperror.CodeForbidden,
		"approver is not authorized to decide this request",
		http.StatusForbidden,
	)
	ErrNoApproverAvailable = apperror.New(
		apperror.CodeNotFound,
		"no approver could be resolved for this employee",
		http.StatusNotFound,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee can cancel this request",
		http.StatusForbidden,
	)
	ErrLeaveNotProcessable = apperror.New(
		apperror.CodeInvalidState,
		"leave request is not in a processable state",
		http.StatusConflict,
	)
	ErrNotBackdated = apperror.New(
		apperror.CodeInvalidState,
		"regularization applies only to backdated requests",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"an approved leave already covers part of this period",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting a request",
		http.StatusBadRequest,
	)
	ErrLedgerConflict = apperror.New(
		apperror.CodeConflict,
		"leave balance changed concurrently, re-fetch and retry",
		http.StatusConflict,
	)
)

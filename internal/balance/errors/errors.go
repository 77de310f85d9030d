package balanceerrors

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
	ErrInvalidYearRange = apperror.New(
		apperror.CodeInvalidInput,
		"to_year must be after from_year",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found for this category and year",
		http.StatusNotFound,
	)
	ErrNothingToRenew = apperror.New(
		apperror.CodeInvalidInput,
		"no balances exist for the source year",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient leave balance for this deduction",
		http.StatusConflict,
	)
	ErrRestoreExceedsUsed = apperror.New(
		apperror.CodeConflict,
		"restore would exceed the days consumed on this balance",
		http.StatusConflict,
	)
)

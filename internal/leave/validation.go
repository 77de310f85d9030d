package leave

import (
	"fmt"
	"time"

	"github.com/S-YED/LMS-sub000/internal/calendar"
	"github.com/S-YED/LMS-sub000/internal/policy"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the read-only ledger view the validator works from.
// Nil means no ledger row exists for the requested category and year.
type BalanceSnapshot struct {
	AvailableDays decimal.Decimal
}

// ExistingLeave is the read-only view of a request that may block the
// proposed range. Callers pass only APPROVED/AUTO_APPROVED requests and
// apply any own-id exclusion before calling.
type ExistingLeave struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
}

type ValidationInput struct {
	JoinDate    time.Time
	Category    string
	StartDate   time.Time
	EndDate     time.Time
	Duration    decimal.Decimal
	IsEmergency bool
	Today       time.Time
	Balance     *BalanceSnapshot
	Existing    []ExistingLeave
}

type ValidationResult struct {
	Valid    bool
	Reasons  []string
	Warnings []string

	// Derived figures, valid whenever the date range itself is valid.
	WorkingDays   int
	RequestedDays decimal.Decimal
	IsBackdated   bool
}

// Validator applies the admission rules to a proposed request. It is a pure
// decision function over snapshots; it reads no stores and keeps no state.
type Validator struct {
	cfg policy.Config
}

func NewValidator(cfg policy.Config) Validator {
	return Validator{cfg: cfg}
}

// Validate evaluates every rule and accumulates all reasons so the caller
// sees the full picture at once. Only an inverted date range short-circuits;
// nothing downstream is meaningful without a valid range.
func (v Validator) Validate(in ValidationInput) ValidationResult {
	var result ValidationResult

	if in.EndDate.Before(in.StartDate) {
		result.Reasons = append(result.Reasons, "end_date must not be before start_date")
		return result
	}

	result.WorkingDays = calendar.WorkingDays(in.StartDate, in.EndDate, v.cfg.RestDays, v.cfg.Holidays)
	result.RequestedDays = calendar.RequestedDays(result.WorkingDays, in.Duration)
	result.IsBackdated = calendar.Classify(in.StartDate, in.Today) == calendar.TimingPast

	if in.StartDate.Before(in.JoinDate) {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("start_date precedes the employee's join date (%s)", in.JoinDate.Format(calendar.DateLayout)))
	}

	for _, existing := range in.Existing {
		if overlaps(in.StartDate, in.EndDate, existing.StartDate, existing.EndDate) {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("overlaps an approved leave from %s to %s",
					existing.StartDate.Format(calendar.DateLayout),
					existing.EndDate.Format(calendar.DateLayout)))
		}
	}

	emergencyBypass := in.IsEmergency && result.RequestedDays.LessThanOrEqual(v.cfg.EmergencyAutoApproveCeiling)
	if !emergencyBypass {
		switch {
		case in.Balance == nil:
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("no leave balance initialized for %s in %d", in.Category, in.StartDate.Year()))
		case result.RequestedDays.GreaterThan(in.Balance.AvailableDays):
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("insufficient balance: requested %s days, available %s",
					result.RequestedDays.String(), in.Balance.AvailableDays.String()))
		}
	}

	if span := calendar.CalendarDays(in.StartDate, in.EndDate); span > v.cfg.MaxRequestSpanDays {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("request spans %d calendar days, exceeding the maximum of %d", span, v.cfg.MaxRequestSpanDays))
	}

	if result.WorkingDays == 0 {
		result.Reasons = append(result.Reasons, "request must include at least one working day")
	}

	if result.IsBackdated {
		offset := calendar.CalendarDays(in.StartDate, in.Today) - 1
		if offset > v.cfg.BackdatedWindowDays {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("start_date is %d days in the past, beyond the allowed backdated window of %d days",
					offset, v.cfg.BackdatedWindowDays))
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("backdated request: start_date is %d days in the past", offset))
		}
	}

	if in.Balance != nil && !emergencyBypass {
		remaining := in.Balance.AvailableDays.Sub(result.RequestedDays)
		if remaining.GreaterThanOrEqual(decimal.Zero) && remaining.LessThan(v.cfg.LowBalanceWarningThreshold) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("approval would leave only %s days of %s balance", remaining.String(), in.Category))
		}
	}

	result.Valid = len(result.Reasons) == 0
	return result
}

// overlaps is the inclusive-range intersection test.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Before(bStart) || aStart.After(bEnd))
}

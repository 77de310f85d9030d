package policy

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the workflow thresholds and allocations applied by the
// validation engine and the lifecycle coordinator. It is injected at
// construction so tests can override individual knobs per case.
type Config struct {
	// EmergencyAutoApproveCeiling is the maximum requested days for which an
	// emergency request is auto-approved and exempt from the balance check.
	EmergencyAutoApproveCeiling decimal.Decimal

	// BackdatedWindowDays is how far in the past a start date may lie.
	// Within the window the request is accepted with a warning; beyond it
	// the request is rejected.
	BackdatedWindowDays int

	// LowBalanceWarningThreshold triggers a non-fatal warning when an
	// approval would leave fewer available days than this.
	LowBalanceWarningThreshold decimal.Decimal

	// MaxRequestSpanDays caps the inclusive calendar-day span of a request.
	MaxRequestSpanDays int

	// RestDays are the weekly non-working days.
	RestDays map[time.Weekday]bool

	// Holidays is an optional set of non-working dates keyed YYYY-MM-DD.
	Holidays map[string]bool

	// DefaultAllocations are the per-category day grants used when a balance
	// year is initialized or renewed.
	DefaultAllocations map[string]decimal.Decimal
}

func Default() Config {
	return Config{
		EmergencyAutoApproveCeiling: decimal.NewFromInt(2),
		BackdatedWindowDays:         30,
		LowBalanceWarningThreshold:  decimal.NewFromInt(5),
		MaxRequestSpanDays:          365,
		RestDays: map[time.Weekday]bool{
			time.Saturday: true,
			time.Sunday:   true,
		},
		Holidays: map[string]bool{},
		DefaultAllocations: map[string]decimal.Decimal{
			"VACATION":     decimal.NewFromInt(20),
			"SICK":         decimal.NewFromInt(12),
			"PERSONAL":     decimal.NewFromInt(5),
			"EMERGENCY":    decimal.NewFromInt(5),
			"MATERNITY":    decimal.NewFromInt(90),
			"PATERNITY":    decimal.NewFromInt(15),
			"BEREAVEMENT":  decimal.NewFromInt(5),
			"COMPENSATORY": decimal.NewFromInt(0),
			"UNPAID":       decimal.NewFromInt(0),
		},
	}
}

// FromEnv returns the default config with any LMS_* overrides applied.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("LMS_EMERGENCY_CEILING_DAYS"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.EmergencyAutoApproveCeiling = d
		}
	}
	if v := os.Getenv("LMS_BACKDATED_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BackdatedWindowDays = n
		}
	}
	if v := os.Getenv("LMS_LOW_BALANCE_THRESHOLD"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.LowBalanceWarningThreshold = d
		}
	}
	if v := os.Getenv("LMS_MAX_REQUEST_SPAN_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRequestSpanDays = n
		}
	}

	return cfg
}

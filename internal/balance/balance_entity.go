package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is the per-employee/category/year day ledger. Rows are never
// deleted; audit retention requires the full history of counters.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_category_year"`
	Category   string    `gorm:"type:varchar(30);not null;uniqueIndex:uq_balance_employee_category_year"`
	Year       int       `gorm:"not null;uniqueIndex:uq_balance_employee_category_year"`

	TotalDays decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	UsedDays  decimal.Decimal `gorm:"type:numeric(6,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableDays is derived, never stored. The deduction guard in the
// repository keeps it non-negative.
func (b LeaveBalance) AvailableDays() decimal.Decimal {
	available := b.TotalDays.Sub(b.UsedDays)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

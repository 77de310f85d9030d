package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending      = "PENDING"
	StatusApproved     = "APPROVED"
	StatusAutoApproved = "AUTO_APPROVED"
	StatusRejected     = "REJECTED"
	StatusCancelled    = "CANCELLED"
)

const (
	CategoryVacation     = "VACATION"
	CategorySick         = "SICK"
	CategoryPersonal     = "PERSONAL"
	CategoryEmergency    = "EMERGENCY"
	CategoryMaternity    = "MATERNITY"
	CategoryPaternity    = "PATERNITY"
	CategoryBereavement  = "BEREAVEMENT"
	CategoryCompensatory = "COMPENSATORY"
	CategoryUnpaid       = "UNPAID"
)

// IsTerminal reports whether a status permits no further transition. Only
// PENDING requests can be decided; everything else is immutable (revoking an
// approved request is a compensating action, not a transition back).
func IsTerminal(status string) bool {
	return status != StatusPending
}

// blockingStatuses are the statuses that make a request occupy its date
// range for overlap purposes. Rejected and cancelled requests never block.
var blockingStatuses = []string{StatusApproved, StatusAutoApproved}

type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`

	Category  string          `gorm:"type:varchar(30);not null"`
	StartDate time.Time       `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate   time.Time       `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	Duration  decimal.Decimal `gorm:"type:numeric(2,1);not null"`
	TotalDays decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Reason    string          `gorm:"type:text;not null"`
	Comments  *string         `gorm:"type:text"`

	Status      string `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leaves_status"`
	IsEmergency bool   `gorm:"not null;default:false"`
	IsBackdated bool   `gorm:"not null;default:false"`

	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_employee_number"`
	FullName       string     `gorm:"type:varchar(120);not null"`
	Email          string     `gorm:"type:varchar(120);not null;uniqueIndex:uq_employee_email"`
	Department     string     `gorm:"type:varchar(60);not null;index:idx_employees_department"`
	ManagerID      *uuid.UUID `gorm:"type:uuid;index:idx_employees_manager"`
	JoinDate       time.Time  `gorm:"type:date;not null"`

	Manager *Employee `gorm:"foreignKey:ManagerID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_employees_deleted_at"`
}

// SubordinateCount pairs a manager with the number of direct reports, used
// when ranking alternate approvers.
type SubordinateCount struct {
	Employee Employee
	Count    int64
}

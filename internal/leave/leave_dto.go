package leave

type ApplyLeaveRequest struct {
	Category    string `json:"category" binding:"required,oneof=VACATION SICK PERSONAL EMERGENCY MATERNITY PATERNITY BEREAVEMENT COMPENSATORY UNPAID"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Duration    string `json:"duration" binding:"omitempty,oneof=FULL_DAY HALF_DAY"`
	Reason      string `json:"reason" binding:"required"`
	IsEmergency bool   `json:"is_emergency"`
	Comments    string `json:"comments"`
}

type ApproveLeaveRequest struct {
	Comments string `json:"comments"`
}

type RejectLeaveRequest struct {
	RejectionReason string `json:"rejection_reason" binding:"required"`
}

type RegularizeLeaveRequest struct {
	Note string `json:"note" binding:"required"`
}

type RevokeLeaveRequest struct {
	ApproverID string `json:"approver_id" binding:"required,uuid"`
	Note       string `json:"note"`
}

type LeaveResponse struct {
	ID              string   `json:"id"`
	EmployeeID      string   `json:"employee_id"`
	Category        string   `json:"category"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	Duration        string   `json:"duration"`
	TotalDays       string   `json:"total_days"`
	Reason          string   `json:"reason"`
	Comments        *string  `json:"comments,omitempty"`
	Status          string   `json:"status"`
	IsEmergency     bool     `json:"is_emergency"`
	IsBackdated     bool     `json:"is_backdated"`
	ApprovedBy      *string  `json:"approved_by,omitempty"`
	ApprovedAt      *string  `json:"approved_at,omitempty"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

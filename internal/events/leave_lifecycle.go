package events

import "time"

const LeaveLifecycleTopic = "lms.leave.lifecycle.v1"

const (
	LeaveRequested    = "leave.requested"
	LeaveAutoApproved = "leave.auto_approved"
	LeaveApproved     = "leave.approved"
	LeaveRejected     = "leave.rejected"
	LeaveCancelled    = "leave.cancelled"
	LeaveRevoked      = "leave.revoked"
)

// LeaveLifecycleEvent is appended to the outbox inside the same transaction
// as the state transition it reports, so downstream consumers (notification
// senders, reporting) never observe a transition that later rolled back.
type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalDays  string    `json:"total_days"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

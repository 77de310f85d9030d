package leave

import (
	"context"
	"time"

	"github.com/S-YED/LMS-sub000/internal/employee"
	leaveerrors "github.com/S-YED/LMS-sub000/internal/leave/errors"
	"github.com/S-YED/LMS-sub000/internal/policy"

	"go.uber.org/zap"
)

// Directory is the read-only slice of the employee store the resolver
// needs. employee.Repository satisfies it.
type Directory interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	FindDepartmentManagers(ctx context.Context, department string) ([]employee.SubordinateCount, error)
	FindTopLevel(ctx context.Context) ([]employee.Employee, error)
}

// AvailabilityStore answers whether an employee is out on approved leave on
// a given date. leave.Repository satisfies it.
type AvailabilityStore interface {
	HasBlockingLeaveOn(ctx context.Context, employeeID string, on time.Time) (bool, error)
}

// chainDepthLimit bounds manager-chain walks; the directory validates
// assignments against cycles, but the resolver never trusts that alone.
const chainDepthLimit = 64

type AuthorizationResult struct {
	Approver *employee.Employee
	Warning  string
}

// Resolver decides who may act on a leave request: the direct manager
// when present and available, otherwise an ordered fallback chain.
type Resolver struct {
	dir    Directory
	leaves AvailabilityStore
	cfg    policy.Config
	logger *zap.Logger
}

func NewResolver(dir Directory, leaves AvailabilityStore, cfg policy.Config, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("leave.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.resolver")
	}
	return Resolver{dir: dir, leaves: leaves, cfg: cfg, logger: l}
}

// ResolveApprover returns the employee's direct manager, or a top-level
// employee when no manager exists.
func (r Resolver) ResolveApprover(ctx context.Context, employeeID string) (*employee.Employee, error) {
	empl, err := r.dir.FindByID(ctx, employeeID)
	if err != nil {
		return nil, leaveerrors.ErrEmployeeNotFound
	}

	if empl.ManagerID != nil {
		manager, err := r.dir.FindByID(ctx, empl.ManagerID.String())
		if err != nil {
			return nil, leaveerrors.ErrNoApproverAvailable
		}
		return manager, nil
	}

	topLevel, err := r.dir.FindTopLevel(ctx)
	if err != nil {
		return nil, err
	}
	for i := range topLevel {
		if topLevel[i].ID != empl.ID {
			return &topLevel[i], nil
		}
	}
	return nil, leaveerrors.ErrNoApproverAvailable
}

// IsManagerAvailable is false iff the manager has an approved or
// auto-approved request covering onDate.
func (r Resolver) IsManagerAvailable(ctx context.Context, managerID string, onDate time.Time) (bool, error) {
	blocked, err := r.leaves.HasBlockingLeaveOn(ctx, managerID, onDate)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

// AlternateApprovers returns the fallback candidates when the direct
// manager cannot act: the manager's own manager; else the department's
// other managers by descending subordinate count; else top-level employees.
func (r Resolver) AlternateApprovers(ctx context.Context, manager *employee.Employee) ([]employee.Employee, error) {
	if manager.ManagerID != nil {
		grand, err := r.dir.FindByID(ctx, manager.ManagerID.String())
		if err == nil {
			return []employee.Employee{*grand}, nil
		}
		r.logger.Warn("manager's manager lookup failed",
			zap.String("manager_id", manager.ID.String()),
			zap.Error(err),
		)
	}

	deptManagers, err := r.dir.FindDepartmentManagers(ctx, manager.Department)
	if err != nil {
		return nil, err
	}
	alternates := make([]employee.Employee, 0, len(deptManagers))
	for _, candidate := range deptManagers {
		if candidate.Employee.ID == manager.ID {
			continue
		}
		alternates = append(alternates, candidate.Employee)
	}
	if len(alternates) > 0 {
		return alternates, nil
	}

	topLevel, err := r.dir.FindTopLevel(ctx)
	if err != nil {
		return nil, err
	}
	return topLevel, nil
}

// Authorize decides whether approverID may act on the request. Self-approval
// always fails regardless of hierarchy. The direct manager passes cleanly
// when available; alternates, chain ancestors, and top-level employees pass
// with a warning; anyone else is unauthorized.
func (r Resolver) Authorize(ctx context.Context, approverID string, req *Leave) (AuthorizationResult, error) {
	approver, err := r.dir.FindByID(ctx, approverID)
	if err != nil {
		return AuthorizationResult{}, leaveerrors.ErrApproverNotFound
	}

	if approver.ID == req.EmployeeID {
		return AuthorizationResult{}, leaveerrors.ErrSelfApproval
	}

	owner, err := r.dir.FindByID(ctx, req.EmployeeID.String())
	if err != nil {
		return AuthorizationResult{}, leaveerrors.ErrEmployeeNotFound
	}

	if owner.ManagerID != nil && *owner.ManagerID == approver.ID {
		available, err := r.IsManagerAvailable(ctx, approver.ID.String(), req.StartDate)
		if err != nil {
			return AuthorizationResult{}, err
		}
		if available {
			return AuthorizationResult{Approver: approver}, nil
		}
		return AuthorizationResult{
			Approver: approver,
			Warning:  "direct manager is on approved leave for this period",
		}, nil
	}

	inChain, err := r.isAncestor(ctx, owner, approver.ID.String())
	if err != nil {
		return AuthorizationResult{}, err
	}
	if inChain {
		return AuthorizationResult{
			Approver: approver,
			Warning:  "approved by a manager above the direct manager",
		}, nil
	}

	if owner.ManagerID != nil {
		manager, err := r.dir.FindByID(ctx, owner.ManagerID.String())
		if err == nil {
			available, err := r.IsManagerAvailable(ctx, manager.ID.String(), req.StartDate)
			if err != nil {
				return AuthorizationResult{}, err
			}
			if !available {
				alternates, err := r.AlternateApprovers(ctx, manager)
				if err != nil {
					return AuthorizationResult{}, err
				}
				for _, alternate := range alternates {
					if alternate.ID == approver.ID {
						return AuthorizationResult{
							Approver: approver,
							Warning:  "approved by an alternate: direct manager unavailable",
						}, nil
					}
				}
			}
		}
	}

	// Top-level employees act as the organization-wide fallback role.
	if approver.ManagerID == nil {
		return AuthorizationResult{
			Approver: approver,
			Warning:  "approved by a top-level fallback approver",
		}, nil
	}

	r.logger.Warn("approver not authorized",
		zap.String("approver_id", approver.ID.String()),
		zap.String("leave_id", req.ID.String()),
		zap.String("employee_id", req.EmployeeID.String()),
	)
	return AuthorizationResult{}, leaveerrors.ErrUnauthorizedApprover
}

// CanAutoApprove is independent of manager availability: short emergency
// requests are approved by the system itself.
func (r Resolver) CanAutoApprove(req *Leave) bool {
	return req.IsEmergency && req.TotalDays.LessThanOrEqual(r.cfg.EmergencyAutoApproveCeiling)
}

// isAncestor walks the owner's chain upward looking for candidateID,
// skipping the direct manager (that case is handled separately).
func (r Resolver) isAncestor(ctx context.Context, owner *employee.Employee, candidateID string) (bool, error) {
	if owner.ManagerID == nil {
		return false, nil
	}

	currentID := owner.ManagerID.String()
	for depth := 0; depth < chainDepthLimit; depth++ {
		current, err := r.dir.FindByID(ctx, currentID)
		if err != nil {
			return false, nil
		}
		if current.ManagerID == nil {
			return false, nil
		}
		if current.ManagerID.String() == candidateID {
			return true, nil
		}
		currentID = current.ManagerID.String()
	}
	return false, nil
}

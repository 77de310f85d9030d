package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/S-YED/LMS-sub000/internal/balance"
	"github.com/S-YED/LMS-sub000/internal/calendar"
	"github.com/S-YED/LMS-sub000/internal/events"
	leaveerrors "github.com/S-YED/LMS-sub000/internal/leave/errors"
	"github.com/S-YED/LMS-sub000/internal/messaging/kafka"
	"github.com/S-YED/LMS-sub000/internal/policy"
	"github.com/S-YED/LMS-sub000/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	ListPendingForApprover(ctx context.Context, approverID string) ([]LeaveResponse, error)
	Approve(ctx context.Context, id, approverID string, comments *string) (LeaveResponse, error)
	Reject(ctx context.Context, id, approverID, rejectionReason string) (LeaveResponse, error)
	Cancel(ctx context.Context, id, employeeID string) (LeaveResponse, error)
	Regularize(ctx context.Context, id, approverID, note string) (LeaveResponse, error)
	RevokeApproved(ctx context.Context, id, employeeID, approverID string, note *string) (LeaveResponse, error)
}

// service coordinates the validator, the resolver, and the stores. It is
// the only component that mutates request status or the balance ledger;
// each mutation pairs the status write and the ledger write in one
// transaction so neither can land without the other.
type service struct {
	db        *sql.DB
	repo      Repository
	balances  balance.Repository
	dir       Directory
	outbox    kafka.OutboxRepository
	validator Validator
	resolver  Resolver
	cfg       policy.Config
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	dir Directory,
	outbox kafka.OutboxRepository,
	cfg policy.Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		balances:  balances,
		dir:       dir,
		outbox:    outbox,
		validator: NewValidator(cfg),
		resolver:  NewResolver(dir, repo, cfg, l),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    l,
	}
}

func (s *service) Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("apply leave requested",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("category", req.Category),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Bool("is_emergency", req.IsEmergency),
	)

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	duration := decimal.NewFromInt(1)
	if req.Duration == "HALF_DAY" {
		duration = decimal.NewFromFloat(0.5)
	}

	empl, err := s.dir.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
		return LeaveResponse{}, err
	}

	today := s.now().Truncate(24 * time.Hour)

	snapshot, err := s.balanceSnapshot(ctx, employeeID, req.Category, startDate.Year())
	if err != nil {
		return LeaveResponse{}, err
	}

	existing, err := s.repo.FindOverlapping(ctx, employeeID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	result := s.validator.Validate(ValidationInput{
		JoinDate:    empl.JoinDate,
		Category:    req.Category,
		StartDate:   startDate,
		EndDate:     endDate,
		Duration:    duration,
		IsEmergency: req.IsEmergency,
		Today:       today,
		Balance:     snapshot,
		Existing:    toExisting(existing),
	})
	if !result.Valid {
		s.logger.Warn("apply leave validation failed",
			zap.String("employee_id", employeeID),
			zap.Strings("reasons", result.Reasons),
		)
		return LeaveResponse{}, leaveerrors.ErrValidationFailed.WithDetails(result.Reasons)
	}

	l := &Leave{
		ID:          uuid.New(),
		EmployeeID:  employeeUUID,
		Category:    req.Category,
		StartDate:   startDate,
		EndDate:     endDate,
		Duration:    duration,
		TotalDays:   result.RequestedDays,
		Reason:      req.Reason,
		Status:      StatusPending,
		IsEmergency: req.IsEmergency,
		IsBackdated: result.IsBackdated,
	}
	if req.Comments != "" {
		l.Comments = &req.Comments
	}

	warnings := result.Warnings
	eventType := events.LeaveRequested

	if s.resolver.CanAutoApprove(l) {
		approver, err := s.resolver.ResolveApprover(ctx, employeeID)
		if err != nil {
			// No resolvable approver must not block an emergency; the
			// request falls back to the pending queue instead.
			s.logger.Warn("auto-approve approver resolution failed, leaving pending",
				zap.String("employee_id", employeeID),
				zap.Error(err),
			)
			warnings = append(warnings, "auto-approval skipped: no approver could be resolved")
		} else {
			decidedAt := s.now()
			l.Status = StatusAutoApproved
			l.ApprovedBy = &approver.ID
			l.ApprovedAt = &decidedAt
			eventType = events.LeaveAutoApproved
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if l.Status == StatusAutoApproved {
		deducted, err := s.balances.WithTx(tx).Deduct(ctx, employeeID, l.Category, startDate.Year(), l.TotalDays)
		if err != nil {
			s.logger.Error("apply leave emergency deduct failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if !deducted {
			// Emergency leave is not gated by balance; the days are settled
			// after the fact by an HR adjustment instead of going negative.
			s.logger.Warn("emergency auto-approval without ledger deduction",
				zap.String("leave_id", l.ID.String()),
				zap.String("employee_id", employeeID),
			)
			warnings = append(warnings, "emergency leave exceeded available balance; ledger settlement pending")
		}
	}

	if err := s.appendEvent(ctx, tx, eventType, l, employeeID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("apply leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("status", l.Status),
		zap.String("total_days", l.TotalDays.String()),
	)

	resp := mapToResponse(*l)
	resp.Warnings = warnings
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	leaves, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPendingForApprover(ctx context.Context, approverID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(approverID); err != nil {
		return nil, leaveerrors.ErrInvalidApproverID
	}
	leaves, err := s.repo.ListPendingForApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) Approve(ctx context.Context, id, approverID string, comments *string) (LeaveResponse, error) {
	return s.decide(ctx, id, approverID, comments, false)
}

// Regularize settles a backdated request. The mechanics are Approve's; it
// exists as a named operation so the audit trail distinguishes an ordinary
// approval from an after-the-fact settlement.
func (s *service) Regularize(ctx context.Context, id, approverID, note string) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if !l.IsBackdated {
		return LeaveResponse{}, leaveerrors.ErrNotBackdated
	}
	return s.decide(ctx, id, approverID, &note, true)
}

func (s *service) decide(ctx context.Context, id, approverID string, comments *string, regularize bool) (LeaveResponse, error) {
	s.logger.Debug("approve leave requested",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
		zap.Bool("regularize", regularize),
	)

	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidApproverID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	auth, err := s.resolver.Authorize(ctx, approverID, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	// A conflicting request may have been approved between submission and
	// now; re-check overlap excluding this request's own id.
	excludeID := l.ID.String()
	conflicts, err := s.repo.FindOverlapping(ctx, l.EmployeeID.String(), l.StartDate, l.EndDate, &excludeID)
	if err != nil {
		s.logger.Error("approve leave overlap re-check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if len(conflicts) > 0 {
		s.logger.Warn("approve leave overlap detected",
			zap.String("leave_id", id),
			zap.Int("conflicts", len(conflicts)),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	decidedAt := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	won, err := qtx.MarkDecided(ctx, id, StatusApproved, approverUUID, decidedAt, comments)
	if err != nil {
		s.logger.Error("approve leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !won {
		// A concurrent decision moved the request out of PENDING first.
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	deducted, err := s.balances.WithTx(tx).Deduct(ctx, l.EmployeeID.String(), l.Category, l.StartDate.Year(), l.TotalDays)
	if err != nil {
		s.logger.Error("approve leave deduct failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !deducted {
		s.logger.Warn("approve leave ledger conflict",
			zap.String("leave_id", id),
			zap.String("total_days", l.TotalDays.String()),
		)
		return LeaveResponse{}, leaveerrors.ErrLedgerConflict
	}

	l.Status = StatusApproved
	l.ApprovedBy = &approverUUID
	l.ApprovedAt = &decidedAt
	if comments != nil && *comments != "" {
		l.Comments = comments
	}

	if err := s.appendEvent(ctx, tx, events.LeaveApproved, l, approverID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("approve leave success",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
		zap.Bool("regularize", regularize),
	)

	resp := mapToResponse(*l)
	if auth.Warning != "" {
		resp.Warnings = append(resp.Warnings, auth.Warning)
	}
	return resp, nil
}

func (s *service) Reject(ctx context.Context, id, approverID, rejectionReason string) (LeaveResponse, error) {
	s.logger.Debug("reject leave requested",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
	)

	if rejectionReason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidApproverID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	auth, err := s.resolver.Authorize(ctx, approverID, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	decidedAt := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	won, err := s.repo.WithTx(tx).MarkRejected(ctx, id, approverUUID, decidedAt, rejectionReason)
	if err != nil {
		s.logger.Error("reject leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !won {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	l.Status = StatusRejected
	l.ApprovedBy = &approverUUID
	l.ApprovedAt = &decidedAt
	l.RejectionReason = &rejectionReason

	if err := s.appendEvent(ctx, tx, events.LeaveRejected, l, approverID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("reject leave success",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
	)

	resp := mapToResponse(*l)
	if auth.Warning != "" {
		resp.Warnings = append(resp.Warnings, auth.Warning)
	}
	return resp, nil
}

func (s *service) Cancel(ctx context.Context, id, employeeID string) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("employee_id", employeeID),
	)

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != employeeID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	won, err := s.repo.WithTx(tx).MarkCancelled(ctx, id)
	if err != nil {
		s.logger.Error("cancel leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !won {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	l.Status = StatusCancelled

	if err := s.appendEvent(ctx, tx, events.LeaveCancelled, l, employeeID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("cancel leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// RevokeApproved is the compensating flow for an approved request: the
// owner asks for withdrawal, an authorized approver signs off, and the
// consumed days return to the ledger atomically with the status change.
func (s *service) RevokeApproved(ctx context.Context, id, employeeID, approverID string, note *string) (LeaveResponse, error) {
	s.logger.Debug("revoke approved leave requested",
		zap.String("leave_id", id),
		zap.String("employee_id", employeeID),
		zap.String("approver_id", approverID),
	)

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != employeeID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	wasAutoApproved := l.Status == StatusAutoApproved
	if l.Status != StatusApproved && !wasAutoApproved {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	if _, err := s.resolver.Authorize(ctx, approverID, l); err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("revoke leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	won, err := s.repo.WithTx(tx).MarkRevoked(ctx, id, note)
	if err != nil {
		s.logger.Error("revoke leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !won {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotProcessable
	}

	restored, err := s.balances.WithTx(tx).Restore(ctx, employeeID, l.Category, l.StartDate.Year(), l.TotalDays)
	if err != nil {
		s.logger.Error("revoke leave restore failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !restored {
		if !wasAutoApproved {
			s.logger.Warn("revoke leave ledger conflict", zap.String("leave_id", id))
			return LeaveResponse{}, leaveerrors.ErrLedgerConflict
		}
		// Emergency auto-approvals may never have deducted the ledger, so
		// there is legitimately nothing to restore.
		s.logger.Warn("revoke of auto-approved leave had no ledger deduction to restore",
			zap.String("leave_id", id),
		)
	}

	l.Status = StatusCancelled
	if note != nil && *note != "" {
		l.Comments = note
	}

	if err := s.appendEvent(ctx, tx, events.LeaveRevoked, l, approverID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("revoke leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("revoke approved leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

func (s *service) balanceSnapshot(ctx context.Context, employeeID, category string, year int) (*BalanceSnapshot, error) {
	b, err := s.balances.FindByEmployeeCategoryYear(ctx, employeeID, category, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("balance snapshot lookup failed", zap.Error(err))
		return nil, err
	}
	return &BalanceSnapshot{AvailableDays: b.AvailableDays()}, nil
}

func (s *service) appendEvent(ctx context.Context, tx *sql.Tx, eventType string, l *Leave, actorID string) error {
	if s.outbox == nil {
		return nil
	}

	event := events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  contextutil.GetRequestID(ctx),
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		Category:   l.Category,
		Status:     l.Status,
		StartDate:  l.StartDate.Format(calendar.DateLayout),
		EndDate:    l.EndDate.Format(calendar.DateLayout),
		TotalDays:  l.TotalDays.String(),
		ActorID:    actorID,
		OccurredAt: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal leave event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     event.RequestID,
		AggregateType: "leave",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(calendar.DateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func toExisting(leaves []Leave) []ExistingLeave {
	existing := make([]ExistingLeave, len(leaves))
	for i, l := range leaves {
		existing[i] = ExistingLeave{
			ID:        l.ID.String(),
			StartDate: l.StartDate,
			EndDate:   l.EndDate,
		}
	}
	return existing
}

func mapToResponse(l Leave) LeaveResponse {
	duration := "FULL_DAY"
	if l.Duration.Equal(decimal.NewFromFloat(0.5)) {
		duration = "HALF_DAY"
	}

	resp := LeaveResponse{
		ID:          l.ID.String(),
		EmployeeID:  l.EmployeeID.String(),
		Category:    l.Category,
		StartDate:   l.StartDate.Format(calendar.DateLayout),
		EndDate:     l.EndDate.Format(calendar.DateLayout),
		Duration:    duration,
		TotalDays:   l.TotalDays.StringFixed(2),
		Reason:      l.Reason,
		Comments:    l.Comments,
		Status:      l.Status,
		IsEmergency: l.IsEmergency,
		IsBackdated: l.IsBackdated,
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

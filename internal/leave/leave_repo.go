package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id string) (*Leave, error)
	FindOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) ([]Leave, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	ListPendingForApprover(ctx context.Context, approverID string) ([]Leave, error)
	HasBlockingLeaveOn(ctx context.Context, employeeID string, on time.Time) (bool, error)

	// Conditional transitions. Each returns whether a row changed: false
	// means the request was no longer in the required source state, i.e. a
	// concurrent caller won the race.
	MarkDecided(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error)
	MarkRejected(ctx context.Context, id string, approverID uuid.UUID, at time.Time, reason string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
	MarkRevoked(ctx context.Context, id string, note *string) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO leaves (
				id, employee_id, category, start_date, end_date, duration, total_days,
				reason, comments, status, is_emergency, is_backdated,
				approved_by, approved_at, rejection_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		`, l.ID, l.EmployeeID, l.Category, l.StartDate, l.EndDate, l.Duration, l.TotalDays,
			l.Reason, l.Comments, l.Status, l.IsEmergency, l.IsBackdated,
			l.ApprovedBy, l.ApprovedAt, l.RejectionReason)
		return err
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		First(&l, "id = ?", id).Error
	return &l, err
}

// FindOverlapping returns the employee's approved or auto-approved requests
// whose inclusive range intersects [startDate, endDate].
func (r *repository) FindOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) ([]Leave, error) {
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", blockingStatuses).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate)

	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var leaves []Leave
	err := db.Order("start_date ASC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

// ListPendingForApprover returns pending requests owned by the approver's
// direct reports, oldest first.
func (r *repository) ListPendingForApprover(ctx context.Context, approverID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Joins("JOIN employees ON employees.id = leaves.employee_id AND employees.deleted_at IS NULL").
		Where("employees.manager_id = ?", approverID).
		Where("leaves.status = ?", StatusPending).
		Order("leaves.created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) HasBlockingLeaveOn(ctx context.Context, employeeID string, on time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", blockingStatuses).
		Where("start_date <= ? AND end_date >= ?", on, on).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) MarkDecided(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error) {
	return r.execAffected(ctx, `
		UPDATE leaves
		SET status = $2, approved_by = $3, approved_at = $4,
			comments = COALESCE($5, comments), rejection_reason = NULL, updated_at = now()
		WHERE id = $1 AND status = $6
	`, id, toStatus, approverID, at, comments, StatusPending)
}

func (r *repository) MarkRejected(ctx context.Context, id string, approverID uuid.UUID, at time.Time, reason string) (bool, error) {
	return r.execAffected(ctx, `
		UPDATE leaves
		SET status = $2, approved_by = $3, approved_at = $4,
			rejection_reason = $5, updated_at = now()
		WHERE id = $1 AND status = $6
	`, id, StatusRejected, approverID, at, reason, StatusPending)
}

func (r *repository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	return r.execAffected(ctx, `
		UPDATE leaves
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, StatusCancelled, StatusPending)
}

// MarkRevoked is the compensating transition for an already-approved
// request; the caller restores the ledger in the same transaction.
func (r *repository) MarkRevoked(ctx context.Context, id string, note *string) (bool, error) {
	return r.execAffected(ctx, `
		UPDATE leaves
		SET status = $2, comments = COALESCE($3, comments), updated_at = now()
		WHERE id = $1 AND status IN ($4, $5)
	`, id, StatusCancelled, note, StatusApproved, StatusAutoApproved)
}

func (r *repository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	if r.tx != nil {
		result, err := r.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return false, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected > 0, nil
	}

	result := r.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

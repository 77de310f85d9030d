package balance

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	InitializeIfAbsent(ctx context.Context, b *LeaveBalance) (bool, error)
	FindByEmployeeCategoryYear(ctx context.Context, employeeID, category string, year int) (*LeaveBalance, error)
	ListByEmployee(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	Deduct(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error)
	Restore(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error)
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

// InitializeIfAbsent creates the ledger row unless one already exists for
// the (employee, category, year) key. Returns whether a row was created.
func (r *repository) InitializeIfAbsent(ctx context.Context, b *LeaveBalance) (bool, error) {
	result, err := r.exec(ctx, `
		INSERT INTO leave_balances (id, employee_id, category, year, total_days, used_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (employee_id, category, year) DO NOTHING
	`, b.ID, b.EmployeeID, b.Category, b.Year, b.TotalDays, b.UsedDays)
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func (r *repository) FindByEmployeeCategoryYear(ctx context.Context, employeeID, category string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("category = ?", category).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID)
	if year > 0 {
		db = db.Where("year = ?", year)
	}

	var balances []LeaveBalance
	err := db.Order("year DESC, category ASC").Find(&balances).Error
	return balances, err
}

// Deduct consumes days from the ledger iff enough remain available. The
// availability check and the increment are a single conditional UPDATE, so
// two concurrent deductions can never both spend the same days.
func (r *repository) Deduct(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
	affected, err := r.exec(ctx, `
		UPDATE leave_balances
		SET used_days = used_days + $4, updated_at = now()
		WHERE employee_id = $1 AND category = $2 AND year = $3
			AND total_days - used_days >= $4
	`, employeeID, category, year, days)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Restore gives days back, guarded so used_days can never go negative.
func (r *repository) Restore(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
	affected, err := r.exec(ctx, `
		UPDATE leave_balances
		SET used_days = used_days - $4, updated_at = now()
		WHERE employee_id = $1 AND category = $2 AND year = $3
			AND used_days >= $4
	`, employeeID, category, year, days)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	if r.tx != nil {
		result, err := r.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return result.RowsAffected()
	}

	result := r.db.WithContext(ctx).Exec(query, args...)
	return result.RowsAffected, result.Error
}

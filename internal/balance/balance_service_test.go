package balance_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/S-YED/LMS-sub000/internal/balance"
	balanceerrors "github.com/S-YED/LMS-sub000/internal/balance/errors"
	"github.com/S-YED/LMS-sub000/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeBalanceRepository struct {
	withTxFn             func(tx *sql.Tx) balance.Repository
	initializeIfAbsentFn func(ctx context.Context, b *balance.LeaveBalance) (bool, error)
	findFn               func(ctx context.Context, employeeID, category string, year int) (*balance.LeaveBalance, error)
	listFn               func(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error)
	deductFn             func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error)
	restoreFn            func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error)
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) balance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeBalanceRepository) InitializeIfAbsent(ctx context.Context, b *balance.LeaveBalance) (bool, error) {
	if f.initializeIfAbsentFn != nil {
		return f.initializeIfAbsentFn(ctx, b)
	}
	return true, nil
}

func (f *fakeBalanceRepository) FindByEmployeeCategoryYear(ctx context.Context, employeeID, category string, year int) (*balance.LeaveBalance, error) {
	if f.findFn != nil {
		return f.findFn(ctx, employeeID, category, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) ListByEmployee(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error) {
	if f.listFn != nil {
		return f.listFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) Deduct(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
	if f.deductFn != nil {
		return f.deductFn(ctx, employeeID, category, year, days)
	}
	return true, nil
}

func (f *fakeBalanceRepository) Restore(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
	if f.restoreFn != nil {
		return f.restoreFn(ctx, employeeID, category, year, days)
	}
	return true, nil
}

type balanceServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service balance.Service
	repo    *fakeBalanceRepository
}

func setupBalanceServiceTest(t *testing.T) *balanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeBalanceRepository{}
	svc := balance.NewService(db, repo, policy.Default())

	return &balanceServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo}
}

func TestBalanceService_InitializeYear(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("success creates a row per category", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		var created []*balance.LeaveBalance
		deps.repo.initializeIfAbsentFn = func(ctx context.Context, b *balance.LeaveBalance) (bool, error) {
			created = append(created, b)
			return true, nil
		}
		deps.repo.listFn = func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
			out := make([]balance.LeaveBalance, len(created))
			for i, b := range created {
				out[i] = *b
			}
			return out, nil
		}

		resp, err := deps.service.InitializeYear(ctx, balance.InitializeBalanceRequest{
			EmployeeID: employeeID,
			Year:       2026,
		})

		assert.NoError(t, err)
		assert.Len(t, resp, len(policy.Default().DefaultAllocations))
		// Categories arrive in deterministic order.
		assert.Equal(t, "BEREAVEMENT", created[0].Category)
		for _, b := range created {
			assert.Equal(t, 2026, b.Year)
			assert.True(t, b.UsedDays.IsZero())
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("idempotent on existing rows", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.initializeIfAbsentFn = func(ctx context.Context, b *balance.LeaveBalance) (bool, error) {
			return false, nil // already present
		}

		_, err := deps.service.InitializeYear(ctx, balance.InitializeBalanceRequest{
			EmployeeID: employeeID,
			Year:       2026,
		})

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.InitializeYear(ctx, balance.InitializeBalanceRequest{
			EmployeeID: "not-a-uuid",
			Year:       2026,
		})

		assert.ErrorIs(t, err, balanceerrors.ErrInvalidEmployeeID)
	})

	t.Run("negative persist failure rolls back", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.repo.initializeIfAbsentFn = func(ctx context.Context, b *balance.LeaveBalance) (bool, error) {
			return false, errors.New("db error")
		}

		_, err := deps.service.InitializeYear(ctx, balance.InitializeBalanceRequest{
			EmployeeID: employeeID,
			Year:       2026,
		})

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_RenewYear(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("success copies allocations with zero usage", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		source := []balance.LeaveBalance{
			{
				EmployeeID: uuid.MustParse(employeeID),
				Category:   "VACATION",
				Year:       2026,
				TotalDays:  decimal.NewFromInt(12),
				UsedDays:   decimal.NewFromInt(9),
			},
		}

		var renewed []*balance.LeaveBalance
		deps.repo.listFn = func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
			if year == 2026 {
				return source, nil
			}
			out := make([]balance.LeaveBalance, len(renewed))
			for i, b := range renewed {
				out[i] = *b
			}
			return out, nil
		}
		deps.repo.initializeIfAbsentFn = func(ctx context.Context, b *balance.LeaveBalance) (bool, error) {
			renewed = append(renewed, b)
			return true, nil
		}

		resp, err := deps.service.RenewYear(ctx, balance.RenewBalanceRequest{
			EmployeeID: employeeID,
			FromYear:   2026,
			ToYear:     2027,
		})

		assert.NoError(t, err)
		if assert.Len(t, renewed, 1) {
			assert.Equal(t, 2027, renewed[0].Year)
			assert.True(t, renewed[0].TotalDays.Equal(decimal.NewFromInt(12)))
			assert.True(t, renewed[0].UsedDays.IsZero())
		}
		if assert.Len(t, resp, 1) {
			assert.Equal(t, "12.00", resp[0].AvailableDays)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative inverted year range", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.RenewYear(ctx, balance.RenewBalanceRequest{
			EmployeeID: employeeID,
			FromYear:   2027,
			ToYear:     2026,
		})

		assert.ErrorIs(t, err, balanceerrors.ErrInvalidYearRange)
	})

	t.Run("negative nothing to renew", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		deps.repo.listFn = func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
			return nil, nil
		}

		_, err := deps.service.RenewYear(ctx, balance.RenewBalanceRequest{
			EmployeeID: employeeID,
			FromYear:   2026,
			ToYear:     2027,
		})

		assert.ErrorIs(t, err, balanceerrors.ErrNothingToRenew)
	})
}

func TestBalanceService_BalanceOf(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps available days at zero", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		employeeID := uuid.New()
		deps.repo.listFn = func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
			return []balance.LeaveBalance{{
				EmployeeID: employeeID,
				Category:   "SICK",
				Year:       2026,
				TotalDays:  decimal.NewFromInt(10),
				UsedDays:   decimal.NewFromInt(12),
			}}, nil
		}

		resp, err := deps.service.BalanceOf(ctx, employeeID.String(), 2026)

		assert.NoError(t, err)
		if assert.Len(t, resp, 1) {
			assert.Equal(t, "0.00", resp[0].AvailableDays)
		}
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.BalanceOf(ctx, "xyz", 2026)

		assert.ErrorIs(t, err, balanceerrors.ErrInvalidEmployeeID)
	})
}

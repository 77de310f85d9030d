package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/S-YED/LMS-sub000/internal/balance"
	"github.com/S-YED/LMS-sub000/internal/employee"
	"github.com/S-YED/LMS-sub000/internal/leave"
	leaveerrors "github.com/S-YED/LMS-sub000/internal/leave/errors"
	"github.com/S-YED/LMS-sub000/internal/messaging/kafka"
	"github.com/S-YED/LMS-sub000/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn             func(tx *sql.Tx) leave.Repository
	createFn             func(ctx context.Context, l *leave.Leave) error
	findByIDFn           func(ctx context.Context, id string) (*leave.Leave, error)
	findOverlappingFn    func(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) ([]leave.Leave, error)
	listByEmployeeFn     func(ctx context.Context, employeeID string) ([]leave.Leave, error)
	listPendingFn        func(ctx context.Context, approverID string) ([]leave.Leave, error)
	hasBlockingLeaveOnFn func(ctx context.Context, employeeID string, on time.Time) (bool, error)
	markDecidedFn        func(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error)
	markRejectedFn       func(ctx context.Context, id string, approverID uuid.UUID, at time.Time, reason string) (bool, error)
	markCancelledFn      func(ctx context.Context, id string) (bool, error)
	markRevokedFn        func(ctx context.Context, id string, note *string) (bool, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.Leave, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) ([]leave.Leave, error) {
	if f.findOverlappingFn != nil {
		return f.findOverlappingFn(ctx, employeeID, startDate, endDate, excludeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leave.Leave, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListPendingForApprover(ctx context.Context, approverID string) ([]leave.Leave, error) {
	if f.listPendingFn != nil {
		return f.listPendingFn(ctx, approverID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) HasBlockingLeaveOn(ctx context.Context, employeeID string, on time.Time) (bool, error) {
	if f.hasBlockingLeaveOnFn != nil {
		return f.hasBlockingLeaveOnFn(ctx, employeeID, on)
	}
	return false, nil
}

func (f *fakeLeaveRepository) MarkDecided(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error) {
	if f.markDecidedFn != nil {
		return f.markDecidedFn(ctx, id, toStatus, approverID, at, comments)
	}
	return true, nil
}

func (f *fakeLeaveRepository) MarkRejected(ctx context.Context, id string, approverID uuid.UUID, at time.Time, reason string) (bool, error) {
	if f.markRejectedFn != nil {
		return f.markRejectedFn(ctx, id, approverID, at, reason)
	}
	return true, nil
}

func (f *fakeLeaveRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	if f.markCancelledFn != nil {
		return f.markCancelledFn(ctx, id)
	}
	return true, nil
}

func (f *fakeLeaveRepository) MarkRevoked(ctx context.Context, id string, note *string) (bool, error) {
	if f.markRevokedFn != nil {
		return f.markRevokedFn(ctx, id, note)
	}
	return true, nil
}

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
	return nil, gorm.ErrRecordNotFound
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

type fakeDirectory struct {
	employees      map[string]*employee.Employee
	findByIDFn     func(ctx context.Context, id string) (*employee.Employee, error)
	deptManagersFn func(ctx context.Context, department string) ([]employee.SubordinateCount, error)
	findTopLevelFn func(ctx context.Context) ([]employee.Employee, error)
}

func (f *fakeDirectory) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDirectory) FindDepartmentManagers(ctx context.Context, department string) ([]employee.SubordinateCount, error) {
	if f.deptManagersFn != nil {
		return f.deptManagersFn(ctx, department)
	}
	return nil, nil
}

func (f *fakeDirectory) FindTopLevel(ctx context.Context) ([]employee.Employee, error) {
	if f.findTopLevelFn != nil {
		return f.findTopLevelFn(ctx)
	}
	return nil, nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type leaveServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  leave.Service
	repo     *fakeLeaveRepository
	balances *fakeBalanceRepository
	dir      *fakeDirectory
	outbox   *fakeOutboxRepository
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	balances := &fakeBalanceRepository{}
	dir := &fakeDirectory{employees: map[string]*employee.Employee{}}
	outbox := &fakeOutboxRepository{}

	svc := leave.NewService(db, repo, balances, dir, outbox, policy.Default())

	return &leaveServiceDeps{
		db:       db,
		sqlMock:  sqlMock,
		service:  svc,
		repo:     repo,
		balances: balances,
		dir:      dir,
		outbox:   outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// nextMonday keeps request windows on working days regardless of when the
// tests run.
func nextMonday(from time.Time) time.Time {
	d := from.Truncate(24 * time.Hour)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func testOrg(deps *leaveServiceDeps) (owner, manager *employee.Employee) {
	manager = &employee.Employee{
		ID:         uuid.New(),
		FullName:   "Dana Chief",
		Department: "ENGINEERING",
		JoinDate:   time.Now().UTC().AddDate(-5, 0, 0),
	}
	owner = &employee.Employee{
		ID:         uuid.New(),
		FullName:   "Riley Reports",
		Department: "ENGINEERING",
		ManagerID:  &manager.ID,
		JoinDate:   time.Now().UTC().AddDate(-2, 0, 0),
	}
	deps.dir.employees[manager.ID.String()] = manager
	deps.dir.employees[owner.ID.String()] = owner
	return owner, manager
}

func availableBalance(total float64) func(ctx context.Context, employeeID, category string, year int) (*balance.LeaveBalance, error) {
	return func(ctx context.Context, employeeID, category string, year int) (*balance.LeaveBalance, error) {
		return &balance.LeaveBalance{
			EmployeeID: uuid.New(),
			Category:   category,
			Year:       year,
			TotalDays:  decimal.NewFromFloat(total),
			UsedDays:   decimal.Zero,
		}, nil
	}
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}

func TestLeaveService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		end := start.AddDate(0, 0, 4) // Mon..Fri

		deps.balances.findFn = availableBalance(12)
		expectTx(t, deps.sqlMock, true)

		var created *leave.Leave
		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			created = l
			return nil
		}

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:  leave.CategoryVacation,
			StartDate: dateStr(start),
			EndDate:   dateStr(end),
			Duration:  "FULL_DAY",
			Reason:    "family trip",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "5.00", resp.TotalDays)
		assert.False(t, resp.IsBackdated)
		assert.Empty(t, resp.Warnings)
		if assert.NotNil(t, created) {
			assert.Equal(t, owner.ID, created.EmployeeID)
			assert.Nil(t, created.ApprovedBy)
		}
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.requested", deps.outbox.created[0].EventType)
			assert.Equal(t, "lms.leave.lifecycle.v1", deps.outbox.created[0].Topic)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("half day multiplier", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		end := start.AddDate(0, 0, 4)

		deps.balances.findFn = availableBalance(12)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:  leave.CategoryVacation,
			StartDate: dateStr(start),
			EndDate:   dateStr(end),
			Duration:  "HALF_DAY",
			Reason:    "appointments",
		})

		assert.NoError(t, err)
		assert.Equal(t, "2.50", resp.TotalDays)
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		end := start.AddDate(0, 0, 4)

		deps.balances.findFn = availableBalance(1)

		_, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:  leave.CategoryVacation,
			StartDate: dateStr(start),
			EndDate:   dateStr(end),
			Reason:    "family trip",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrValidationFailed)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlapping request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		end := start.AddDate(0, 0, 4)

		deps.balances.findFn = availableBalance(12)
		deps.repo.findOverlappingFn = func(ctx context.Context, employeeID string, s, e time.Time, excludeID *string) ([]leave.Leave, error) {
			assert.Nil(t, excludeID)
			return []leave.Leave{{
				ID:        uuid.New(),
				StartDate: start,
				EndDate:   start.AddDate(0, 0, 1),
			}}, nil
		}

		_, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:  leave.CategoryVacation,
			StartDate: dateStr(start),
			EndDate:   dateStr(end),
			Reason:    "family trip",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrValidationFailed)
	})

	t.Run("emergency auto approval deducts ledger", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))

		deps.balances.findFn = availableBalance(5)
		expectTx(t, deps.sqlMock, true)

		deducted := false
		deps.balances.deductFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			deducted = true
			assert.Equal(t, owner.ID.String(), employeeID)
			assert.True(t, days.Equal(decimal.NewFromInt(1)))
			return true, nil
		}

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:    leave.CategoryEmergency,
			StartDate:   dateStr(start),
			EndDate:     dateStr(start),
			Reason:      "burst pipe",
			IsEmergency: true,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusAutoApproved, resp.Status)
		assert.True(t, deducted)
		if assert.NotNil(t, resp.ApprovedBy) {
			assert.Equal(t, manager.ID.String(), *resp.ApprovedBy)
		}
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.auto_approved", deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("emergency auto approval with empty ledger still approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))

		// No ledger row for this category/year at all.
		deps.balances.findFn = func(ctx context.Context, employeeID, category string, year int) (*balance.LeaveBalance, error) {
			return nil, gorm.ErrRecordNotFound
		}
		deps.balances.deductFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			return false, nil
		}
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:    leave.CategoryEmergency,
			StartDate:   dateStr(start),
			EndDate:     dateStr(start),
			Reason:      "hospital",
			IsEmergency: true,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusAutoApproved, resp.Status)
		assert.NotEmpty(t, resp.Warnings)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("emergency above ceiling stays pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		end := start.AddDate(0, 0, 4) // 5 working days > 2.0 ceiling

		deps.balances.findFn = availableBalance(12)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:    leave.CategoryEmergency,
			StartDate:   dateStr(start),
			EndDate:     dateStr(end),
			Reason:      "extended emergency",
			IsEmergency: true,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
	})

	t.Run("backdated within window flagged with warning", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := time.Now().UTC().AddDate(0, 0, -10).Truncate(24 * time.Hour)
		for start.Weekday() == time.Saturday || start.Weekday() == time.Sunday {
			start = start.AddDate(0, 0, -1)
		}

		deps.balances.findFn = availableBalance(12)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, owner.ID.String(), leave.ApplyLeaveRequest{
			Category:  leave.CategorySick,
			StartDate: dateStr(start),
			EndDate:   dateStr(start),
			Reason:    "was out sick",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.True(t, resp.IsBackdated)
		assert.NotEmpty(t, resp.Warnings)
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))

		_, err := deps.service.Apply(ctx, uuid.New().String(), leave.ApplyLeaveRequest{
			Category:  leave.CategoryVacation,
			StartDate: dateStr(start),
			EndDate:   dateStr(start),
			Reason:    "trip",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
	})
}

func pendingLeave(owner *employee.Employee, start, end time.Time, days float64) *leave.Leave {
	return &leave.Leave{
		ID:         uuid.New(),
		EmployeeID: owner.ID,
		Category:   leave.CategoryVacation,
		StartDate:  start,
		EndDate:    end,
		Duration:   decimal.NewFromInt(1),
		TotalDays:  decimal.NewFromFloat(days),
		Reason:     "family trip",
		Status:     leave.StatusPending,
	}
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("success by direct manager", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start.AddDate(0, 0, 4), 5)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			assert.Equal(t, l.ID.String(), id)
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)

		var decidedStatus string
		deps.repo.markDecidedFn = func(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error) {
			decidedStatus = toStatus
			assert.Equal(t, manager.ID, approverID)
			return true, nil
		}
		deducted := false
		deps.balances.deductFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			deducted = true
			assert.True(t, days.Equal(decimal.NewFromInt(5)))
			return true, nil
		}

		resp, err := deps.service.Approve(ctx, l.ID.String(), manager.ID.String(), nil)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, leave.StatusApproved, decidedStatus)
		assert.True(t, deducted)
		assert.Empty(t, resp.Warnings)
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.approved", deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative self approval", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), owner.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrSelfApproval)
	})

	t.Run("negative unrelated approver", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		stranger := &employee.Employee{
			ID:         uuid.New(),
			FullName:   "Sam Elsewhere",
			Department: "SALES",
			ManagerID:  &manager.ID,
			JoinDate:   time.Now().UTC().AddDate(-1, 0, 0),
		}
		deps.dir.employees[stranger.ID.String()] = stranger

		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), stranger.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrUnauthorizedApprover)
	})

	t.Run("negative already decided", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)
		l.Status = leave.StatusApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotProcessable)
	})

	t.Run("negative lost decision race", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, false)
		deps.repo.markDecidedFn = func(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotProcessable)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative ledger conflict rolls back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start.AddDate(0, 0, 4), 5)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, false)
		deps.balances.deductFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLedgerConflict)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlap approved meanwhile", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start.AddDate(0, 0, 4), 5)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.findOverlappingFn = func(ctx context.Context, employeeID string, s, e time.Time, excludeID *string) ([]leave.Leave, error) {
			if assert.NotNil(t, excludeID) {
				assert.Equal(t, l.ID.String(), *excludeID)
			}
			return []leave.Leave{{ID: uuid.New(), StartDate: start, EndDate: start}}, nil
		}

		_, err := deps.service.Approve(ctx, l.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("success with reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)

		var gotReason string
		deps.repo.markRejectedFn = func(ctx context.Context, id string, approverID uuid.UUID, at time.Time, reason string) (bool, error) {
			gotReason = reason
			return true, nil
		}

		resp, err := deps.service.Reject(ctx, l.ID.String(), manager.ID.String(), "team coverage")

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Equal(t, "team coverage", gotReason)
		if assert.NotNil(t, resp.RejectionReason) {
			assert.Equal(t, "team coverage", *resp.RejectionReason)
		}
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.rejected", deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative missing reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Reject(ctx, l.ID.String(), manager.ID.String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success by owner", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Cancel(ctx, l.ID.String(), owner.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.cancelled", deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not the owner", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, l.ID.String(), manager.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	})

	t.Run("negative already decided", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, _ := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)
		l.Status = leave.StatusRejected

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, l.ID.String(), owner.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotProcessable)
	})
}

func TestLeaveService_Regularize(t *testing.T) {
	ctx := context.Background()

	t.Run("success settles backdated request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := time.Now().UTC().AddDate(0, 0, -7).Truncate(24 * time.Hour)
		l := pendingLeave(owner, start, start, 1)
		l.IsBackdated = true

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)

		var gotComments *string
		deps.repo.markDecidedFn = func(ctx context.Context, id, toStatus string, approverID uuid.UUID, at time.Time, comments *string) (bool, error) {
			gotComments = comments
			return true, nil
		}

		resp, err := deps.service.Regularize(ctx, l.ID.String(), manager.ID.String(), "confirmed with employee")

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		if assert.NotNil(t, gotComments) {
			assert.Equal(t, "confirmed with employee", *gotComments)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not backdated", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Regularize(ctx, l.ID.String(), manager.ID.String(), "note")

		assert.ErrorIs(t, err, leaveerrors.ErrNotBackdated)
	})
}

func TestLeaveService_RevokeApproved(t *testing.T) {
	ctx := context.Background()

	t.Run("success restores ledger", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start.AddDate(0, 0, 2), 3)
		l.Status = leave.StatusApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)

		restored := false
		deps.balances.restoreFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			restored = true
			assert.True(t, days.Equal(decimal.NewFromInt(3)))
			return true, nil
		}

		resp, err := deps.service.RevokeApproved(ctx, l.ID.String(), owner.ID.String(), manager.ID.String(), nil)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.True(t, restored)
		if assert.Len(t, deps.outbox.created, 1) {
			assert.Equal(t, "leave.revoked", deps.outbox.created[0].EventType)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative restore conflict on regular approval", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)
		l.Status = leave.StatusApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, false)
		deps.balances.restoreFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			return false, nil
		}

		_, err := deps.service.RevokeApproved(ctx, l.ID.String(), owner.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLedgerConflict)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("auto approved without deduction tolerates empty restore", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)
		l.Status = leave.StatusAutoApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		expectTx(t, deps.sqlMock, true)
		deps.balances.restoreFn = func(ctx context.Context, employeeID, category string, year int, days decimal.Decimal) (bool, error) {
			return false, nil
		}

		resp, err := deps.service.RevokeApproved(ctx, l.ID.String(), owner.ID.String(), manager.ID.String(), nil)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))
		l := pendingLeave(owner, start, start, 1)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.RevokeApproved(ctx, l.ID.String(), owner.ID.String(), manager.ID.String(), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotProcessable)
	})
}

func TestLeaveService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("get by id not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("list pending for approver", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner, manager := testOrg(deps)
		start := nextMonday(time.Now().UTC().AddDate(0, 1, 0))

		deps.repo.listPendingFn = func(ctx context.Context, approverID string) ([]leave.Leave, error) {
			assert.Equal(t, manager.ID.String(), approverID)
			return []leave.Leave{*pendingLeave(owner, start, start, 1)}, nil
		}

		resp, err := deps.service.ListPendingForApprover(ctx, manager.ID.String())

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, owner.ID.String(), resp[0].EmployeeID)
	})

	t.Run("repo error passthrough", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.listByEmployeeFn = func(ctx context.Context, employeeID string) ([]leave.Leave, error) {
			return nil, errors.New("db error")
		}

		resp, err := deps.service.ListByEmployee(ctx, uuid.New().String())

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

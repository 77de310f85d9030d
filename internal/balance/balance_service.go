package balance

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	balanceerrors "github.com/S-YED/LMS-sub000/internal/balance/errors"
	"github.com/S-YED/LMS-sub000/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	InitializeYear(ctx context.Context, req InitializeBalanceRequest) ([]BalanceResponse, error)
	RenewYear(ctx context.Context, req RenewBalanceRequest) ([]BalanceResponse, error)
	BalanceOf(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	cfg    policy.Config
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, cfg policy.Config, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, repo: repo, cfg: cfg, logger: l}
}

// InitializeYear creates the ledger rows for every configured category.
// Rows that already exist are left untouched, so the call is idempotent.
func (s *service) InitializeYear(ctx context.Context, req InitializeBalanceRequest) ([]BalanceResponse, error) {
	s.logger.Debug("initialize balance year requested",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
	)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("initialize balance begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	categories := make([]string, 0, len(s.cfg.DefaultAllocations))
	for category := range s.cfg.DefaultAllocations {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		b := &LeaveBalance{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			Category:   category,
			Year:       req.Year,
			TotalDays:  s.cfg.DefaultAllocations[category],
			UsedDays:   decimal.Zero,
		}
		if _, err := qtx.InitializeIfAbsent(ctx, b); err != nil {
			s.logger.Error("initialize balance persist failed",
				zap.String("category", category),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("initialize balance commit failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("initialize balance year success",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
		zap.Int("categories", len(categories)),
	)

	return s.BalanceOf(ctx, req.EmployeeID, req.Year)
}

// RenewYear carries category allocations forward into a new year with zero
// consumption. Existing target-year rows are preserved as-is.
func (s *service) RenewYear(ctx context.Context, req RenewBalanceRequest) ([]BalanceResponse, error) {
	s.logger.Debug("renew balance year requested",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("from_year", req.FromYear),
		zap.Int("to_year", req.ToYear),
	)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}
	if req.ToYear <= req.FromYear {
		return nil, balanceerrors.ErrInvalidYearRange
	}

	source, err := s.repo.ListByEmployee(ctx, req.EmployeeID, req.FromYear)
	if err != nil {
		s.logger.Error("renew balance list source year failed", zap.Error(err))
		return nil, err
	}
	if len(source) == 0 {
		return nil, balanceerrors.ErrNothingToRenew
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("renew balance begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	for _, src := range source {
		b := &LeaveBalance{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			Category:   src.Category,
			Year:       req.ToYear,
			TotalDays:  src.TotalDays,
			UsedDays:   decimal.Zero,
		}
		if _, err := qtx.InitializeIfAbsent(ctx, b); err != nil {
			s.logger.Error("renew balance persist failed",
				zap.String("category", src.Category),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("renew balance commit failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("renew balance year success",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("to_year", req.ToYear),
		zap.Int("categories", len(source)),
	)

	return s.BalanceOf(ctx, req.EmployeeID, req.ToYear)
}

func (s *service) BalanceOf(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	balances, err := s.repo.ListByEmployee(ctx, employeeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []BalanceResponse{}, nil
		}
		s.logger.Error("balance of employee failed", zap.Error(err))
		return nil, err
	}

	return mapToListResponse(balances), nil
}

// CurrentYear is a convenience for handlers defaulting the year filter.
func CurrentYear() int {
	return time.Now().UTC().Year()
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		EmployeeID:    b.EmployeeID.String(),
		Category:      b.Category,
		Year:          b.Year,
		TotalDays:     b.TotalDays.StringFixed(2),
		UsedDays:      b.UsedDays.StringFixed(2),
		AvailableDays: b.AvailableDays().StringFixed(2),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}

package app

import (
	"database/sql"

	"github.com/S-YED/LMS-sub000/internal/balance"
	"github.com/S-YED/LMS-sub000/internal/employee"
	"github.com/S-YED/LMS-sub000/internal/leave"
	"github.com/S-YED/LMS-sub000/internal/messaging/kafka"
	"github.com/S-YED/LMS-sub000/internal/policy"
	"github.com/S-YED/LMS-sub000/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	cfg := policy.FromEnv()

	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	employeeService := employee.NewService(db, employeeRepo, counterRepo, rdb)
	balanceService := balance.NewService(db, balanceRepo, cfg)
	leaveService := leave.NewService(db, leaveRepo, balanceRepo, employeeRepo, outboxRepo, cfg)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler)
		balance.RegisterRoutes(api, balanceHandler)
		leave.RegisterRoutes(api, leaveHandler)
	}

	return nil
}

package balance

import (
	"github.com/S-YED/LMS-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("", handler.GetBalances)
		balances.POST("/initialize", handler.Initialize)
		balances.POST("/renew", handler.Renew)
	}
}

package leave

import (
	"github.com/S-YED/LMS-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", handler.Apply)
		leaves.GET("", handler.List)
		leaves.GET("/pending-approvals", handler.PendingApprovals)
		leaves.GET("/:id", handler.GetByID)
		leaves.POST("/:id/approve", handler.Approve)
		leaves.POST("/:id/reject", handler.Reject)
		leaves.POST("/:id/cancel", handler.Cancel)
		leaves.POST("/:id/regularize", handler.Regularize)
		leaves.POST("/:id/revoke", handler.Revoke)
	}
}

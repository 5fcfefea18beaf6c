package stats

import (
	"go-presence/internal/middleware"
	"go-presence/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	stats := r.Group("/attendance")
	stats.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		stats.GET("/partial/:subjectId/:eventId",
			middleware.RBACAuthorize(rbacService, "attendance", "read"),
			h.GetPartialAttendance,
		)
	}
}

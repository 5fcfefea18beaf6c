package session

import (
	"go-presence/internal/middleware"
	"go-presence/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	sessions := r.Group("/sessions")
	sessions.Use(middleware.AuthMiddleware())
	{
		sessions.POST("", middleware.RBACAuthorize(rbacService, "session", "create"), h.Create)
		sessions.GET("/event/:eventId", middleware.RBACAuthorize(rbacService, "session", "read"), h.GetByEvent)
		sessions.GET("/:id", middleware.RBACAuthorize(rbacService, "session", "read"), h.GetByID)
		sessions.PUT("/:id", middleware.RBACAuthorize(rbacService, "session", "update"), h.Update)
		sessions.DELETE("/:id", middleware.RBACAuthorize(rbacService, "session", "delete"), h.Delete)
	}
}

package event

import (
	"go-presence/internal/middleware"
	"go-presence/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	events := r.Group("/events")
	events.Use(middleware.AuthMiddleware())
	{
		events.GET("", middleware.RBACAuthorize(rbacService, "event", "read"), h.GetAll)
		events.POST("", middleware.RBACAuthorize(rbacService, "event", "create"), h.Create)
		events.GET("/:id", middleware.RBACAuthorize(rbacService, "event", "read"), h.GetByID)
		events.PUT("/:id", middleware.RBACAuthorize(rbacService, "event", "update"), h.Update)
		events.DELETE("/:id", middleware.RBACAuthorize(rbacService, "event", "delete"), h.Delete)

		events.GET("/:id/participants", middleware.RBACAuthorize(rbacService, "event", "read"), h.ListParticipants)
		events.POST("/:id/participants", middleware.RBACAuthorize(rbacService, "event", "update"), h.AddParticipant)
		events.DELETE("/:id/participants/:subjectId", middleware.RBACAuthorize(rbacService, "event", "update"), h.RemoveParticipant)
	}
}

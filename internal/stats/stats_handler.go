package stats

import (
	"net/http"

	"go-presence/internal/shared/apperror"
	"go-presence/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetPartialAttendance(c *gin.Context) {
	orgID := c.GetString("org_id")
	subjectID := c.Param("subjectId")
	eventID := c.Param("eventId")

	resp, err := h.service.GetPartialAttendance(c.Request.Context(), orgID, subjectID, eventID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

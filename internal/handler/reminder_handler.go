package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/response"
)

// ReminderHandler triggers fee reminder sweeps.
type ReminderHandler struct {
	reminders *service.ReminderService
}

// NewReminderHandler constructs ReminderHandler.
func NewReminderHandler(reminders *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Dispatch godoc
// @Summary Send overdue fee reminders
// @Description Queues one SMS per enrollment whose derived status is overdue
// @Tags Reminders
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /reminders/overdue [post]
func (h *ReminderHandler) Dispatch(c *gin.Context) {
	dispatch, err := h.reminders.DispatchOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dispatch, nil)
}

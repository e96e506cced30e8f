// File: handlers/callbacks.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	workflowRepoPkg "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/models"
)

// NotificationCallbackHandler receives delivery and engagement events from
// the email and SMS gateways.
type NotificationCallbackHandler struct {
	NotificationRepo workflowRepoPkg.WorkflowNotificationRepository
}

func NewNotificationCallbackHandler(notificationRepo workflowRepoPkg.WorkflowNotificationRepository) *NotificationCallbackHandler {
	return &NotificationCallbackHandler{NotificationRepo: notificationRepo}
}

var validCallbackStatuses = map[string]bool{
	models.NotificationDelivered: true,
	models.NotificationOpened:    true,
	models.NotificationClicked:   true,
	models.NotificationFailed:    true,
}

// HandleCallback serves POST /api/notifications/callback.
func (h *NotificationCallbackHandler) HandleCallback(c *gin.Context) {
	var input struct {
		NotificationID string `json:"notificationId" binding:"required"`
		Status         string `json:"status" binding:"required"`
		ErrorCode      string `json:"errorCode"`
		ErrorMessage   string `json:"errorMessage"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if !validCallbackStatuses[input.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown notification status", "status": input.Status})
		return
	}

	if err := h.NotificationRepo.UpdateStatus(input.NotificationID, input.Status, input.ErrorCode, input.ErrorMessage); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found", "details": err.Error()})
		return
	}

	// Opens and clicks count as engagement.
	if input.Status == models.NotificationOpened || input.Status == models.NotificationClicked {
		if err := h.NotificationRepo.MarkResponse(input.NotificationID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark engagement", "details": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "callback processed"})
}

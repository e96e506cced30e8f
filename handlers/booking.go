// File: handlers/booking.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepoPkg "github.com/rasel1911/onelimo/database/repository/booking"
	userRepoPkg "github.com/rasel1911/onelimo/database/repository/user"
	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/workflow"
	"github.com/rasel1911/onelimo/utils"
)

// BookingHandler owns the trigger endpoint that starts a fulfillment run.
type BookingHandler struct {
	BookingRepo bookingRepoPkg.BookingRequestRepository
	UserRepo    userRepoPkg.UserRepository
	Workflow    workflow.WorkflowService
}

func NewBookingHandler(bookingRepo bookingRepoPkg.BookingRequestRepository, userRepo userRepoPkg.UserRepository, wf workflow.WorkflowService) *BookingHandler {
	return &BookingHandler{BookingRepo: bookingRepo, UserRepo: userRepo, Workflow: wf}
}

// TriggerBooking persists the request and requester, then starts the run.
// Re-submitting the same booking request resumes its existing run.
func (h *BookingHandler) TriggerBooking(c *gin.Context) {
	logger := utils.GetLogger()

	var input struct {
		BookingRequest models.BookingRequest `json:"bookingRequest"`
		User           models.User           `json:"user"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if input.BookingRequest.Pickup.City == "" || input.BookingRequest.Dropoff.City == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup and dropoff cities are required"})
		return
	}
	if !input.User.Contact().HasAnyChannel() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user has no reachable contact channel"})
		return
	}

	now := time.Now()
	if input.User.ID == "" {
		input.User.ID = uuid.New().String()
		input.User.CreatedAt = now
	}
	if _, err := h.UserRepo.GetByID(input.User.ID); err != nil {
		if err := h.UserRepo.Create(&input.User); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist user", "details": err.Error()})
			return
		}
	}

	resumed := input.BookingRequest.ID != ""
	if input.BookingRequest.ID == "" {
		input.BookingRequest.ID = uuid.New().String()
		input.BookingRequest.CreatedAt = now
	}
	input.BookingRequest.CustomerID = input.User.ID
	if _, err := h.BookingRepo.GetByID(input.BookingRequest.ID); err != nil {
		resumed = false
		if err := h.BookingRepo.Create(&input.BookingRequest); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist booking request", "details": err.Error()})
			return
		}
	}

	run, err := h.Workflow.StartRun(c.Request.Context(), workflow.TriggerPayload{
		BookingRequest: input.BookingRequest,
		User:           input.User,
	})
	if err != nil {
		logger.Error("Workflow start failed",
			zap.String("bookingRequestId", input.BookingRequest.ID),
			zap.Error(err))
		// The run, if created, already recorded the failing step; surface
		// the run id so the caller can inspect it.
		if run != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":         "workflow failed",
				"details":       err.Error(),
				"workflowRunId": run.ID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "workflow failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"workflowRunId":    run.ID,
		"bookingRequestId": input.BookingRequest.ID,
		"status":           run.Status,
		"resumed":          resumed,
	})
}

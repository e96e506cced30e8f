// File: handlers/workflow.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	workflowRepoPkg "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/services/workflow"
)

// WorkflowHandler serves run status and the admin inspection endpoints.
type WorkflowHandler struct {
	Workflow         workflow.WorkflowService
	ProviderRepo     workflowRepoPkg.WorkflowProviderRepository
	QuoteRepo        workflowRepoPkg.WorkflowQuoteRepository
	NotificationRepo workflowRepoPkg.WorkflowNotificationRepository
}

func NewWorkflowHandler(wf workflow.WorkflowService, providerRepo workflowRepoPkg.WorkflowProviderRepository, quoteRepo workflowRepoPkg.WorkflowQuoteRepository, notificationRepo workflowRepoPkg.WorkflowNotificationRepository) *WorkflowHandler {
	return &WorkflowHandler{
		Workflow:         wf,
		ProviderRepo:     providerRepo,
		QuoteRepo:        quoteRepo,
		NotificationRepo: notificationRepo,
	}
}

// GetRunStatus returns the run plus every step row, including failed steps.
func (h *WorkflowHandler) GetRunStatus(c *gin.Context) {
	runID := c.Param("runID")

	status, err := h.Workflow.GetRunStatus(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow run not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetRunProviders lists every provider contacted for a run.
func (h *WorkflowHandler) GetRunProviders(c *gin.Context) {
	providers, err := h.ProviderRepo.GetByRunID(c.Param("runID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load providers", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// GetRunQuotes lists the analyzed quotes of a run.
func (h *WorkflowHandler) GetRunQuotes(c *gin.Context) {
	quotes, err := h.QuoteRepo.GetByRunID(c.Param("runID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quotes", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// GetRunNotifications lists the per-attempt delivery audit of a run.
func (h *WorkflowHandler) GetRunNotifications(c *gin.Context) {
	notifications, err := h.NotificationRepo.GetByRunID(c.Param("runID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

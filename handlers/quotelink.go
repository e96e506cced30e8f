// File: handlers/quotelink.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rasel1911/onelimo/services/workflow"
)

// QuoteLinkHandler serves the unauthenticated customer quote links.
type QuoteLinkHandler struct {
	Workflow workflow.WorkflowService
}

func NewQuoteLinkHandler(wf workflow.WorkflowService) *QuoteLinkHandler {
	return &QuoteLinkHandler{Workflow: wf}
}

// GetQuotes serves GET /api/ql/quotes/:hash — the ranked quote view.
func (h *QuoteLinkHandler) GetQuotes(c *gin.Context) {
	run, quotes, err := h.Workflow.GetQuotesForCustomer(c.Request.Context(), c.Param("hash"))
	if err != nil {
		respondLinkError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflowRunId": run.ID,
		"marketSummary": run.QuoteAnalysisSummary,
		"recommendedId": run.SelectedQuoteID,
		"quotes":        quotes,
		"selectionOpen": !run.Terminal(),
	})
}

// SelectQuote serves POST /api/ql/quotes/:hash/select.
func (h *QuoteLinkHandler) SelectQuote(c *gin.Context) {
	var input struct {
		QuoteID string `json:"quoteId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Workflow.RecordUserQuoteSelection(c.Request.Context(), c.Param("hash"), input.QuoteID); err != nil {
		respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quote selected"})
}

// DeclineQuotes serves POST /api/ql/quotes/:hash/decline.
func (h *QuoteLinkHandler) DeclineQuotes(c *gin.Context) {
	var input struct {
		Notes string `json:"notes"`
	}
	// Body is optional on a decline.
	_ = c.ShouldBindJSON(&input)

	if err := h.Workflow.RecordUserDecline(c.Request.Context(), c.Param("hash"), input.Notes); err != nil {
		respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quotes declined"})
}

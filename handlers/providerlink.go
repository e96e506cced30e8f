// File: handlers/providerlink.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/services/workflow"
)

// ProviderLinkHandler serves the unauthenticated provider action links.
type ProviderLinkHandler struct {
	Workflow workflow.WorkflowService
}

func NewProviderLinkHandler(wf workflow.WorkflowService) *ProviderLinkHandler {
	return &ProviderLinkHandler{Workflow: wf}
}

// HandleAction serves GET /api/pl/:hash. A bare hit returns the booking
// details; ?action=accept or ?action=decline records a one-click response.
func (h *ProviderLinkHandler) HandleAction(c *gin.Context) {
	hash := c.Param("hash")
	action := c.Query("action")

	if action == "" {
		provider, booking, err := h.Workflow.GetProviderLinkView(c.Request.Context(), hash)
		if err != nil {
			respondLinkError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"provider": provider,
			"booking":  booking,
		})
		return
	}

	if action != "accept" && action != "decline" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept or decline"})
		return
	}

	provider, err := h.Workflow.RecordProviderResponse(c.Request.Context(), hash, action, c.Query("notes"))
	if err != nil {
		respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "response recorded",
		"responseStatus": provider.ResponseStatus,
	})
}

// LinkStatus serves GET /api/pl/:hash/status. It lets a provider's client
// poll whether a link is still actionable without triggering any action.
func (h *ProviderLinkHandler) LinkStatus(c *gin.Context) {
	status, err := h.Workflow.CheckProviderLinkStatus(c.Request.Context(), c.Param("hash"))
	if err != nil {
		respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SubmitQuote serves POST /api/pl/:hash/quote.
func (h *ProviderLinkHandler) SubmitQuote(c *gin.Context) {
	var input struct {
		Amount float64 `json:"amount" binding:"required"`
		Notes  string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	provider, err := h.Workflow.RecordProviderQuote(c.Request.Context(), c.Param("hash"), input.Amount, input.Notes)
	if err != nil {
		respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "quote recorded",
		"quoteAmount": provider.QuoteAmount,
	})
}

// respondLinkError maps the distinct link failure modes onto status codes:
// an unknown hash is 404, a tampered blob is 400, an expired link is 410,
// anything else is 500.
func respondLinkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
	case errors.Is(err, linkcodec.ErrDecryptionFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "link is invalid"})
	case errors.Is(err, workflow.ErrLinkExpired):
		c.JSON(http.StatusGone, gin.H{"error": "link has expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

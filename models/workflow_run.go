package models

import "time"

// WorkflowRun statuses, in rough lifecycle order.
const (
	RunAnalyzing             = "analyzing"
	RunSendingNotifications  = "sending_notifications"
	RunProcessingResponses   = "processing_responses"
	RunAnalysisFailed        = "analysis_failed"
	RunProcessingConfirm     = "processing_confirmation"
	RunConfirmationFailed    = "confirmation_failed"
	RunCompleted             = "completed"
	RunFailed                = "failed"
)

// WorkflowRun is the durable record of one end-to-end fulfillment of a
// booking request. Created once, mutated only by the orchestrator.
type WorkflowRun struct {
	ID               string `bson:"id" json:"id"`
	BookingRequestID string `bson:"booking_request_id" json:"bookingRequestId"`
	Status           string `bson:"status" json:"status"`
	CurrentStep      string `bson:"current_step" json:"currentStep"`
	CurrentStepNum   int    `bson:"current_step_num" json:"currentStepNumber"`

	// Accumulated analysis blobs.
	BookingAnalysis      string `bson:"booking_analysis,omitempty" json:"bookingAnalysis,omitempty"`
	QuoteAnalysisSummary string `bson:"quote_analysis_summary,omitempty" json:"quoteAnalysisSummary,omitempty"`
	ConfirmationAnalysis string `bson:"confirmation_analysis,omitempty" json:"confirmationAnalysis,omitempty"`

	// Selected quote pointer, populated at the Quotes / User Response steps.
	SelectedProviderID  string  `bson:"selected_provider_id,omitempty" json:"selectedProviderId,omitempty"`
	SelectedQuoteID     string  `bson:"selected_quote_id,omitempty" json:"selectedQuoteId,omitempty"`
	SelectedQuoteAmount float64 `bson:"selected_quote_amount,omitempty" json:"selectedQuoteAmount,omitempty"`

	// Customer quote-selection link.
	CustomerLinkHash    string    `bson:"customer_link_hash,omitempty" json:"customerLinkHash,omitempty"`
	CustomerLinkPayload string    `bson:"customer_link_payload,omitempty" json:"-"`
	CustomerLinkExpiry  time.Time `bson:"customer_link_expiry,omitempty" json:"customerLinkExpiry,omitempty"`

	StartedAt   time.Time  `bson:"started_at" json:"startedAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Terminal reports whether the run has reached an end state.
func (r WorkflowRun) Terminal() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}

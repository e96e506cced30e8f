// File: services/workflow/callbacks.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/utils"
)

// resolveProviderLink turns a presented hash into the provider row plus its
// verified payload. The three failure modes stay distinct so handlers can
// show the right page: unknown hash, undecryptable blob, expired link.
func (s *DefaultWorkflowService) resolveProviderLink(hash string) (*models.WorkflowProvider, *linkcodec.DecodedProviderLink, error) {
	provider, err := s.ProviderRepo.GetByLinkHash(hash)
	if err != nil || provider == nil {
		return nil, nil, ErrLinkNotFound
	}

	decoded, err := s.Codec.DecodeProviderLink(provider.LinkPayload)
	if err != nil {
		return nil, nil, err
	}
	if decoded.IsExpired {
		return provider, decoded, ErrLinkExpired
	}
	return provider, decoded, nil
}

// GetProviderLinkView resolves a provider link into the provider row and
// the booking it refers to, for the details page.
func (s *DefaultWorkflowService) GetProviderLinkView(ctx context.Context, hash string) (*models.WorkflowProvider, *models.BookingRequest, error) {
	provider, decoded, err := s.resolveProviderLink(hash)
	if err != nil {
		return nil, nil, err
	}

	booking, err := s.BookingRepo.GetByID(decoded.Payload.BookingRequestID)
	if err != nil {
		return nil, nil, err
	}
	return provider, booking, nil
}

// CheckProviderLinkStatus revalidates a stored provider link without
// acting on it. A tampered or mismatched blob reads as invalid rather
// than erroring; only an unknown hash is an error.
func (s *DefaultWorkflowService) CheckProviderLinkStatus(ctx context.Context, hash string) (linkcodec.LinkStatus, error) {
	provider, err := s.ProviderRepo.GetByLinkHash(hash)
	if err != nil || provider == nil {
		return linkcodec.LinkStatus{}, ErrLinkNotFound
	}
	return s.Codec.Revalidate(hash, provider.LinkPayload), nil
}

// RecordProviderResponse records an accept or decline arriving through a
// provider action link and nudges the response check forward.
func (s *DefaultWorkflowService) RecordProviderResponse(ctx context.Context, hash, action, notes string) (*models.WorkflowProvider, error) {
	provider, decoded, err := s.resolveProviderLink(hash)
	if err != nil {
		return nil, err
	}

	var status string
	switch action {
	case "accept":
		status = models.ResponseAccepted
	case "decline":
		status = models.ResponseDeclined
	default:
		return nil, fmt.Errorf("unknown provider action %q", action)
	}

	now := time.Now()
	update := bson.M{
		"has_responded":   true,
		"response_status": status,
		"response_time":   now,
		"response_notes":  notes,
	}
	if err := s.ProviderRepo.UpdateSetDocument(provider.ID, update); err != nil {
		return nil, err
	}
	provider.HasResponded = true
	provider.ResponseStatus = status
	provider.ResponseTime = &now
	provider.ResponseNotes = notes

	utils.GetLogger().Info("Provider response recorded",
		zap.String("workflowRunId", decoded.Payload.RunID),
		zap.String("workflowProviderId", provider.ID),
		zap.String("status", status))

	s.Queue.EnqueueResponseCheck(decoded.Payload.RunID, 0)
	return provider, nil
}

// RecordProviderQuote records a price quote from a provider. Quoting
// implies accepting; an explicit decline never carries an amount.
func (s *DefaultWorkflowService) RecordProviderQuote(ctx context.Context, hash string, amount float64, notes string) (*models.WorkflowProvider, error) {
	provider, decoded, err := s.resolveProviderLink(hash)
	if err != nil {
		return nil, err
	}

	if amount <= 0 {
		return nil, fmt.Errorf("quote amount must be positive, got %.2f", amount)
	}

	now := time.Now()
	update := bson.M{
		"has_responded":   true,
		"response_status": models.ResponseAccepted,
		"response_time":   now,
		"response_notes":  notes,
		"has_quoted":      true,
		"quote_amount":    amount,
		"quote_time":      now,
	}
	if err := s.ProviderRepo.UpdateSetDocument(provider.ID, update); err != nil {
		return nil, err
	}
	provider.HasResponded = true
	provider.ResponseStatus = models.ResponseAccepted
	provider.ResponseTime = &now
	provider.ResponseNotes = notes
	provider.HasQuoted = true
	provider.QuoteAmount = amount
	provider.QuoteTime = &now

	utils.GetLogger().Info("Provider quote recorded",
		zap.String("workflowRunId", decoded.Payload.RunID),
		zap.String("workflowProviderId", provider.ID),
		zap.Float64("amount", amount))

	s.Queue.EnqueueResponseCheck(decoded.Payload.RunID, 0)
	return provider, nil
}

// resolveCustomerLink is the quote-link counterpart of resolveProviderLink.
func (s *DefaultWorkflowService) resolveCustomerLink(hash string) (*models.WorkflowRun, *linkcodec.DecodedQuoteLink, error) {
	run, err := s.RunRepo.GetByCustomerLinkHash(hash)
	if err != nil || run == nil {
		return nil, nil, ErrLinkNotFound
	}

	decoded, err := s.Codec.DecodeQuoteLink(run.CustomerLinkPayload)
	if err != nil {
		return nil, nil, err
	}
	if decoded.IsExpired {
		return run, decoded, ErrLinkExpired
	}
	return run, decoded, nil
}

// GetQuotesForCustomer returns the run and its ranked quotes for the
// quote-selection page.
func (s *DefaultWorkflowService) GetQuotesForCustomer(ctx context.Context, hash string) (*models.WorkflowRun, []models.WorkflowQuote, error) {
	run, _, err := s.resolveCustomerLink(hash)
	if err != nil {
		return nil, nil, err
	}

	quotes, err := s.QuoteRepo.GetByRunID(run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, quotes, nil
}

// RecordUserQuoteSelection records the requester's pick, overriding any
// pre-selection, and hands the run to the confirmation step.
func (s *DefaultWorkflowService) RecordUserQuoteSelection(ctx context.Context, hash, quoteID string) error {
	run, _, err := s.resolveCustomerLink(hash)
	if err != nil {
		return err
	}

	quote, err := s.QuoteRepo.GetByID(quoteID)
	if err != nil {
		return err
	}
	if quote.WorkflowRunID != run.ID {
		return fmt.Errorf("quote %s does not belong to run %s", quoteID, run.ID)
	}

	if err := s.QuoteRepo.SelectByUser(run.ID, quoteID); err != nil {
		return err
	}

	run.SelectedProviderID = quote.WorkflowProviderID
	run.SelectedQuoteID = quote.ID
	run.SelectedQuoteAmount = quote.Amount
	if err := s.RunRepo.UpdateSetDocument(run.ID, bson.M{
		"selected_provider_id":  run.SelectedProviderID,
		"selected_quote_id":     run.SelectedQuoteID,
		"selected_quote_amount": run.SelectedQuoteAmount,
	}); err != nil {
		return err
	}

	details := models.UserResponseDetails{
		Intent:          "accepted",
		SelectedQuoteID: quote.ID,
		ProviderID:      quote.WorkflowProviderID,
		Amount:          quote.Amount,
	}
	if err := s.completeUserResponseStep(run, details); err != nil {
		return err
	}

	utils.GetLogger().Info("User selected a quote",
		zap.String("workflowRunId", run.ID),
		zap.String("quoteId", quote.ID))

	s.Queue.EnqueueAdvance(run.ID)
	return nil
}

// RecordUserDecline records that the requester walked away from all quotes
// and closes the run out without a confirmation.
func (s *DefaultWorkflowService) RecordUserDecline(ctx context.Context, hash, notes string) error {
	run, _, err := s.resolveCustomerLink(hash)
	if err != nil {
		return err
	}

	details := models.UserResponseDetails{
		Intent: "declined",
		Notes:  notes,
	}
	if err := s.completeUserResponseStep(run, details); err != nil {
		return err
	}

	utils.GetLogger().Info("User declined all quotes",
		zap.String("workflowRunId", run.ID))

	return s.endRunEarly(ctx, run, "user declined all quotes")
}

func (s *DefaultWorkflowService) completeUserResponseStep(run *models.WorkflowRun, details models.UserResponseDetails) error {
	step, done, err := s.beginStep(run, models.StepUserResponse, models.RunProcessingConfirm)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("user response already recorded for run %s", run.ID)
	}
	return s.completeStep(step, details)
}

// File: services/workflow/quotes.go
package workflow

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// runQuotesStep — step 5: rank whatever quotes arrived and hand the ranked
// set to the requester through a fresh quote link. A failed customer
// notification is recorded in the step details but does not fail the step;
// the quotes remain reachable through the stored link.
func (s *DefaultWorkflowService) runQuotesStep(ctx context.Context, run *models.WorkflowRun, booking models.BookingRequest) error {
	logger := utils.GetLogger()

	step, done, err := s.beginStep(run, models.StepQuotes, models.RunAnalyzing)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	providers, err := s.ProviderRepo.GetByRunID(run.ID)
	if err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	var quoted []models.WorkflowProvider
	for _, p := range providers {
		if p.HasQuoted {
			quoted = append(quoted, p)
		}
	}

	if len(quoted) == 0 {
		// Nothing to rank. The run stops here in a queryable state rather
		// than raising: a re-trigger or manual follow-up picks it up.
		logger.Warn("No quotes received before the window closed",
			zap.String("workflowRunId", run.ID))
		step.Status = models.StepFailed
		step.ErrorMessage = "no quotes received"
		if err := s.StepRepo.Update(step); err != nil {
			return err
		}
		run.Status = models.RunAnalysisFailed
		return s.RunRepo.Update(run)
	}

	result, err := s.Ranker.RankQuotes(ctx, run, quoted, booking)
	if err != nil {
		return s.failStep(run, step, models.RunAnalysisFailed, err)
	}
	if len(result.Quotes) == 0 {
		step.Status = models.StepFailed
		step.ErrorMessage = "quote analysis produced no usable scores"
		if err := s.StepRepo.Update(step); err != nil {
			return err
		}
		run.Status = models.RunAnalysisFailed
		return s.RunRepo.Update(run)
	}

	// Pre-select the oracle's pick; the requester may override it.
	if len(result.SelectedQuoteIDs) > 0 {
		for _, q := range result.Quotes {
			if q.ID == result.SelectedQuoteIDs[0] {
				run.SelectedProviderID = q.WorkflowProviderID
				run.SelectedQuoteID = q.ID
				run.SelectedQuoteAmount = q.Amount
				break
			}
		}
	}
	run.QuoteAnalysisSummary = result.MarketSummary
	if err := s.RunRepo.UpdateSetDocument(run.ID, bson.M{
		"selected_provider_id":   run.SelectedProviderID,
		"selected_quote_id":      run.SelectedQuoteID,
		"selected_quote_amount":  run.SelectedQuoteAmount,
		"quote_analysis_summary": run.QuoteAnalysisSummary,
	}); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	notificationError := s.notifyCustomerOfQuotes(ctx, run, booking, len(result.Quotes))

	details := models.QuotesDetails{
		AnalyzedCount:     len(result.Quotes),
		SelectedQuoteIDs:  result.SelectedQuoteIDs,
		MarketSummary:     result.MarketSummary,
		NotificationError: notificationError,
	}
	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	run.Status = models.RunProcessingResponses
	run.CurrentStep = models.StepUserResponse
	run.CurrentStepNum = models.StepNumber(models.StepUserResponse)
	return s.RunRepo.Update(run)
}

// notifyCustomerOfQuotes sends the quote-selection link to the requester.
// Delivery failures are reported as a string for the step details; they
// never abort the step.
func (s *DefaultWorkflowService) notifyCustomerOfQuotes(ctx context.Context, run *models.WorkflowRun, booking models.BookingRequest, quoteCount int) string {
	user, err := s.UserRepo.GetByID(booking.CustomerID)
	if err != nil {
		return "customer lookup failed: " + err.Error()
	}

	result := s.Notifier.SendCustomerQuoteNotification(ctx, run, user.Contact(), s.Renderer.CustomerQuoteNotice(booking, quoteCount))
	if result.Success {
		return ""
	}
	if len(result.Errors) == 0 {
		return "customer notification failed"
	}
	return strings.Join(result.Errors, "; ")
}

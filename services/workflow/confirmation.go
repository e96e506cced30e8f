// File: services/workflow/confirmation.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// runConfirmationStep — step 7: tell both parties the booking is on. Both
// sends are always attempted; the step fails only when neither party could
// be reached.
func (s *DefaultWorkflowService) runConfirmationStep(ctx context.Context, run *models.WorkflowRun, booking models.BookingRequest) error {
	step, done, err := s.beginStep(run, models.StepConfirmation, models.RunProcessingConfirm)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if run.SelectedProviderID == "" {
		return s.failStep(run, step, models.RunConfirmationFailed, fmt.Errorf("no quote selected for run %s", run.ID))
	}

	provider, err := s.ProviderRepo.GetByID(run.SelectedProviderID)
	if err != nil {
		return s.failStep(run, step, models.RunConfirmationFailed, err)
	}

	details := models.ConfirmationDetails{}

	providerMsg := s.Renderer.ProviderConfirmation(booking, run.SelectedQuoteAmount)
	providerResult := s.Notifier.SendDirect(ctx, run.ID, provider.ID, provider.Contact(), providerMsg)
	details.ProviderNotified = providerResult.Success
	if !providerResult.Success && len(providerResult.Errors) > 0 {
		details.ProviderError = providerResult.Errors[0]
	}

	if user, err := s.UserRepo.GetByID(booking.CustomerID); err != nil {
		details.CustomerError = "customer lookup failed: " + err.Error()
	} else {
		customerMsg := s.Renderer.CustomerConfirmation(booking, provider.Name, run.SelectedQuoteAmount)
		customerResult := s.Notifier.SendDirect(ctx, run.ID, "", user.Contact(), customerMsg)
		details.CustomerNotified = customerResult.Success
		if !customerResult.Success && len(customerResult.Errors) > 0 {
			details.CustomerError = customerResult.Errors[0]
		}
	}

	if !details.ProviderNotified && !details.CustomerNotified {
		cause := fmt.Errorf("confirmation unreachable for both parties: provider: %s; customer: %s",
			details.ProviderError, details.CustomerError)
		return s.failStep(run, step, models.RunConfirmationFailed, cause)
	}

	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunConfirmationFailed, err)
	}

	utils.GetLogger().Info("Booking confirmed",
		zap.String("workflowRunId", run.ID),
		zap.String("providerName", provider.Name),
		zap.Float64("amount", run.SelectedQuoteAmount))
	return nil
}

// runCompleteStep — step 8: terminal bookkeeping.
func (s *DefaultWorkflowService) runCompleteStep(ctx context.Context, run *models.WorkflowRun) error {
	step, done, err := s.beginStep(run, models.StepComplete, run.Status)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	now := time.Now()
	details := models.CompleteDetails{
		FinalStatus: models.RunCompleted,
		CompletedAt: now,
	}
	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	run.Status = models.RunCompleted
	run.CurrentStep = models.StepComplete
	run.CurrentStepNum = models.StepNumber(models.StepComplete)
	run.CompletedAt = &now
	if err := s.RunRepo.Update(run); err != nil {
		return err
	}

	utils.GetLogger().Info("Workflow run completed",
		zap.String("workflowRunId", run.ID),
		zap.Duration("elapsed", now.Sub(run.StartedAt)))
	return nil
}

// File: services/workflow/steps.go
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// runRequestStep — step 1: record the raw request and requester contact.
// Completes synchronously, always.
func (s *DefaultWorkflowService) runRequestStep(ctx context.Context, run *models.WorkflowRun, trigger TriggerPayload) error {
	step, done, err := s.beginStep(run, models.StepRequest, models.RunAnalyzing)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	details := models.RequestDetails{
		BookingRequestID: trigger.BookingRequest.ID,
		CustomerContact:  trigger.User.Contact(),
		VehicleType:      trigger.BookingRequest.VehicleType,
		PickupCity:       trigger.BookingRequest.Pickup.City,
		DropoffCity:      trigger.BookingRequest.Dropoff.City,
		PassengerCount:   trigger.BookingRequest.PassengerCount,
	}
	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}
	return nil
}

// runMessageStep — step 2: obtain the message analysis from the oracle.
func (s *DefaultWorkflowService) runMessageStep(ctx context.Context, run *models.WorkflowRun, booking models.BookingRequest) error {
	step, done, err := s.beginStep(run, models.StepMessage, models.RunAnalyzing)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	text := booking.SpecialRequests
	if text == "" {
		text = "No special requests provided."
	}

	analysis, err := s.Oracle.AnalyzeMessage(ctx, text)
	if err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	run.BookingAnalysis = analysis.CleanedText
	if err := s.RunRepo.UpdateSetDocument(run.ID, bson.M{"booking_analysis": analysis.CleanedText}); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	details := models.MessageDetails{
		Urgency:     analysis.Urgency,
		CleanedText: analysis.CleanedText,
		KeyPoints:   analysis.KeyPoints,
		Score:       analysis.Score,
	}
	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}
	return nil
}

// runNotificationStep — step 3: match providers and dispatch multi-channel
// notices. An empty match list ends the workflow cleanly; a dispatch batch
// with partial failures still completes the step.
func (s *DefaultWorkflowService) runNotificationStep(ctx context.Context, run *models.WorkflowRun, booking models.BookingRequest) error {
	logger := utils.GetLogger()

	step, done, err := s.beginStep(run, models.StepNotification, models.RunSendingNotifications)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	matched, err := s.Matcher.MatchProviders(booking)
	if err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	if len(matched) == 0 {
		logger.Info("No providers available, ending workflow",
			zap.String("workflowRunId", run.ID))

		details := models.NotificationDetails{
			MatchedCount: 0,
			EndWorkflow:  true,
			DispatchedAt: time.Now(),
		}
		if err := s.completeStep(step, details); err != nil {
			return s.failStep(run, step, models.RunFailed, err)
		}
		return s.endRunEarly(ctx, run, "no providers available")
	}

	// Append-only audit rows, one per contacted provider.
	rows := make([]models.WorkflowProvider, 0, len(matched))
	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		row := models.WorkflowProvider{
			ID:                uuid.New().String(),
			WorkflowRunID:     run.ID,
			ServiceProviderID: m.Provider.ID,
			Name:              m.Provider.Name,
			Email:             m.Provider.Email,
			Phone:             m.Provider.Phone,
			MatchScore:        m.Score,
			ContactStatus:     models.ContactPending,
		}
		rows = append(rows, row)
		ids = append(ids, row.ID)
	}
	if err := s.ProviderRepo.CreateMany(rows); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	result := s.Notifier.DispatchToProviders(ctx, run, rows, s.Renderer.ProviderNotice(booking))

	contactStatus := models.ContactNotified
	if !result.Success {
		contactStatus = models.ContactFailed
	}
	for _, id := range ids {
		if err := s.ProviderRepo.UpdateSetDocument(id, bson.M{"contact_status": contactStatus}); err != nil {
			logger.Warn("Failed to update contact status", zap.String("workflowProviderId", id), zap.Error(err))
		}
	}

	details := models.NotificationDetails{
		MatchedCount: len(matched),
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Errors:       result.Errors,
		ProviderIDs:  ids,
		DispatchedAt: time.Now(),
	}
	if err := s.completeStep(step, details); err != nil {
		return s.failStep(run, step, models.RunFailed, err)
	}

	run.Status = models.RunProcessingResponses
	run.CurrentStep = models.StepProviders
	run.CurrentStepNum = models.StepNumber(models.StepProviders)
	if err := s.RunRepo.Update(run); err != nil {
		return err
	}

	// Hand the passive wait to the durable host.
	s.Queue.EnqueueResponseCheck(run.ID, s.checkInterval())
	return nil
}

// endRunEarly closes out the remaining steps and completes the run when the
// workflow has nothing left to do. The skipped steps are completed with
// empty details so the step sequence stays consistent.
func (s *DefaultWorkflowService) endRunEarly(ctx context.Context, run *models.WorkflowRun, reason string) error {
	for _, name := range []string{models.StepProviders, models.StepQuotes, models.StepUserResponse, models.StepConfirmation} {
		step, err := s.StepRepo.GetByRunAndName(run.ID, name)
		if err != nil {
			return err
		}
		if step.Status == models.StepCompleted || step.Status == models.StepFailed {
			continue
		}
		if _, _, err := s.beginStep(run, name, run.Status); err != nil {
			return err
		}
		step, err = s.StepRepo.GetByRunAndName(run.ID, name)
		if err != nil {
			return err
		}
		if err := s.completeStep(step, nil); err != nil {
			return err
		}
	}
	return s.runCompleteStep(ctx, run)
}

// File: services/workflow/orchestrator.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// StartRun creates the run with all 8 step rows (step 1 in progress, the
// rest pending) and executes the synchronous head of the workflow: Request,
// Message and Notification. The passive tail is driven by the durable host.
func (s *DefaultWorkflowService) StartRun(ctx context.Context, trigger TriggerPayload) (*models.WorkflowRun, error) {
	logger := utils.GetLogger()

	if trigger.BookingRequest.ID == "" {
		return nil, fmt.Errorf("trigger missing booking request id")
	}

	// One run per booking request: a re-triggered request resumes its run.
	if existing, err := s.RunRepo.GetByBookingRequestID(trigger.BookingRequest.ID); err == nil && existing != nil {
		logger.Info("Run already exists for booking request, resuming",
			zap.String("workflowRunId", existing.ID))
		return existing, s.Advance(ctx, existing.ID)
	}

	run := &models.WorkflowRun{
		ID:               uuid.New().String(),
		BookingRequestID: trigger.BookingRequest.ID,
		Status:           models.RunAnalyzing,
		CurrentStep:      models.StepRequest,
		CurrentStepNum:   1,
		StartedAt:        time.Now(),
	}
	if err := s.RunRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create workflow run: %w", err)
	}

	steps := make([]models.WorkflowStep, 0, len(models.StepOrder))
	now := time.Now()
	for i, name := range models.StepOrder {
		step := models.WorkflowStep{
			ID:            uuid.New().String(),
			WorkflowRunID: run.ID,
			Name:          name,
			Number:        i + 1,
			Status:        models.StepPending,
		}
		if i == 0 {
			step.Status = models.StepInProgress
			step.StartedAt = &now
		}
		steps = append(steps, step)
	}
	if err := s.StepRepo.CreateMany(steps); err != nil {
		return nil, fmt.Errorf("failed to create workflow steps: %w", err)
	}

	logger.Info("Workflow run started",
		zap.String("workflowRunId", run.ID),
		zap.String("bookingRequestId", run.BookingRequestID))

	return run, s.runHead(ctx, run, trigger)
}

// runHead executes the synchronous head steps in order. Each handler skips
// itself once completed, so replaying after a partial failure only runs
// what is still pending.
func (s *DefaultWorkflowService) runHead(ctx context.Context, run *models.WorkflowRun, trigger TriggerPayload) error {
	if err := s.runRequestStep(ctx, run, trigger); err != nil {
		return err
	}
	if err := s.runMessageStep(ctx, run, trigger.BookingRequest); err != nil {
		return err
	}
	return s.runNotificationStep(ctx, run, trigger.BookingRequest)
}

// Advance executes the next step that is ready to run. It is safe to call
// repeatedly: completed steps are skipped and a failed run stays failed.
func (s *DefaultWorkflowService) Advance(ctx context.Context, runID string) error {
	run, err := s.RunRepo.GetByID(runID)
	if err != nil {
		return err
	}
	if run.Terminal() {
		return nil
	}

	steps, err := s.StepRepo.GetByRunID(runID)
	if err != nil {
		return err
	}

	booking, err := s.BookingRepo.GetByID(run.BookingRequestID)
	if err != nil {
		return err
	}

	for _, step := range steps {
		switch step.Status {
		case models.StepCompleted:
			continue
		case models.StepFailed:
			// Failure is terminal for the run unless re-triggered from the top.
			return nil
		}

		switch step.Name {
		case models.StepRequest, models.StepMessage, models.StepNotification:
			// The head normally runs inside StartRun. A pending head step
			// here means the process died mid-head; rebuild the trigger
			// from the stored records and replay it.
			user, err := s.UserRepo.GetByID(booking.CustomerID)
			if err != nil {
				return err
			}
			trigger := TriggerPayload{BookingRequest: *booking, User: *user}
			if err := s.runHead(ctx, run, trigger); err != nil {
				return err
			}
			return s.Advance(ctx, runID)
		case models.StepProviders:
			outcome, err := s.EvaluateResponses(ctx, runID)
			if err != nil {
				return err
			}
			if outcome.StillWaiting {
				return nil
			}
			return s.Advance(ctx, runID)
		case models.StepQuotes:
			return s.runQuotesStep(ctx, run, *booking)
		case models.StepUserResponse:
			// Waits on the requester; recorded via the quote link callback.
			return nil
		case models.StepConfirmation:
			if err := s.runConfirmationStep(ctx, run, *booking); err != nil {
				return err
			}
			return s.Advance(ctx, runID)
		case models.StepComplete:
			return s.runCompleteStep(ctx, run)
		default:
			return fmt.Errorf("unknown workflow step %q", step.Name)
		}
	}
	return nil
}

// GetRunStatus returns the run and all its step rows, including failed
// steps' error messages. Partial progress is never hidden.
func (s *DefaultWorkflowService) GetRunStatus(ctx context.Context, runID string) (*RunStatus, error) {
	run, err := s.RunRepo.GetByID(runID)
	if err != nil {
		return nil, err
	}
	steps, err := s.StepRepo.GetByRunID(runID)
	if err != nil {
		return nil, err
	}
	return &RunStatus{Run: *run, Steps: steps}, nil
}

// beginStep promotes a step to in_progress and moves the run pointer. The
// returned done flag short-circuits handlers re-invoked by the host after
// the step already completed.
func (s *DefaultWorkflowService) beginStep(run *models.WorkflowRun, name, runStatus string) (*models.WorkflowStep, bool, error) {
	step, err := s.StepRepo.GetByRunAndName(run.ID, name)
	if err != nil {
		return nil, false, err
	}
	if step.Status == models.StepCompleted {
		return step, true, nil
	}

	number := models.StepNumber(name)
	if number > 1 {
		prev, err := s.StepRepo.GetByRunAndName(run.ID, models.StepOrder[number-2])
		if err != nil {
			return nil, false, err
		}
		if prev.Status != models.StepCompleted && prev.Status != models.StepFailed {
			return nil, false, fmt.Errorf("step %q before %q finished: %w", name, prev.Name, ErrOutOfOrder)
		}
	}

	now := time.Now()
	if step.Status == models.StepFailed {
		step.RetryCount++
		step.ErrorMessage = ""
	}
	step.Status = models.StepInProgress
	if step.StartedAt == nil {
		step.StartedAt = &now
	}
	if err := s.StepRepo.Update(step); err != nil {
		return nil, false, err
	}

	run.Status = runStatus
	run.CurrentStep = name
	if number > run.CurrentStepNum {
		run.CurrentStepNum = number
	}
	if err := s.RunRepo.Update(run); err != nil {
		return nil, false, err
	}
	return step, false, nil
}

// completeStep writes the step's details and marks it completed.
func (s *DefaultWorkflowService) completeStep(step *models.WorkflowStep, details interface{}) error {
	now := time.Now()
	step.Status = models.StepCompleted
	step.CompletedAt = &now
	if details != nil {
		step.Details = models.NewStepDetails(details)
	}
	return s.StepRepo.Update(step)
}

// failStep records the failure on both the step and the run. Bookkeeping is
// always written before the error propagates.
func (s *DefaultWorkflowService) failStep(run *models.WorkflowRun, step *models.WorkflowStep, runStatus string, cause error) error {
	logger := utils.GetLogger()

	step.Status = models.StepFailed
	step.ErrorMessage = cause.Error()
	if err := s.StepRepo.Update(step); err != nil {
		logger.Error("Failed to record step failure", zap.String("workflowRunId", run.ID), zap.Error(err))
	}

	run.Status = runStatus
	if err := s.RunRepo.Update(run); err != nil {
		logger.Error("Failed to record run failure", zap.String("workflowRunId", run.ID), zap.Error(err))
	}

	logger.Error("Workflow step failed",
		zap.String("workflowRunId", run.ID),
		zap.String("step", step.Name),
		zap.Error(cause))
	return newStepError(step.Name, step.Number, cause)
}

func (s *DefaultWorkflowService) checkInterval() time.Duration {
	if s.CheckInterval <= 0 {
		return time.Minute
	}
	return s.CheckInterval
}

func (s *DefaultWorkflowService) responseWindow() time.Duration {
	if s.ResponseWindow <= 0 {
		return 30 * time.Minute
	}
	return s.ResponseWindow
}

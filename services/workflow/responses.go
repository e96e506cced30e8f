// File: services/workflow/responses.go
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// EvaluateResponses — step 4: the passive wait on provider responses. It is
// re-entrant: the durable host invokes it on a cadence and it advances the
// run exactly when every contacted provider has responded or the response
// window has elapsed since dispatch. Whatever arrived by then is kept.
func (s *DefaultWorkflowService) EvaluateResponses(ctx context.Context, runID string) (EvalOutcome, error) {
	logger := utils.GetLogger()

	run, err := s.RunRepo.GetByID(runID)
	if err != nil {
		return EvalOutcome{}, err
	}
	if run.Terminal() {
		return EvalOutcome{}, nil
	}

	step, done, err := s.beginStep(run, models.StepProviders, models.RunProcessingResponses)
	if err != nil {
		return EvalOutcome{}, err
	}
	if done {
		return EvalOutcome{Advance: true}, nil
	}

	providers, err := s.ProviderRepo.GetByRunID(runID)
	if err != nil {
		return EvalOutcome{}, err
	}

	var contacted, responded, quoted int
	for _, p := range providers {
		if p.ContactStatus == models.ContactNotified {
			contacted++
		}
		if p.HasResponded {
			responded++
		}
		if p.HasQuoted {
			quoted++
		}
	}

	allResponded := contacted > 0 && responded >= contacted
	windowElapsed := s.dispatchWindowElapsed(run)

	if !allResponded && !windowElapsed {
		logger.Debug("Still waiting on provider responses",
			zap.String("workflowRunId", runID),
			zap.Int("responded", responded),
			zap.Int("contacted", contacted))
		s.Queue.EnqueueResponseCheck(runID, s.checkInterval())
		return EvalOutcome{StillWaiting: true}, nil
	}

	details := models.ProvidersDetails{
		ContactedCount: contacted,
		RespondedCount: responded,
		QuotedCount:    quoted,
		WindowElapsed:  windowElapsed && !allResponded,
	}
	if err := s.completeStep(step, details); err != nil {
		return EvalOutcome{}, s.failStep(run, step, models.RunFailed, err)
	}

	logger.Info("Provider response window closed",
		zap.String("workflowRunId", runID),
		zap.Int("responded", responded),
		zap.Int("quoted", quoted),
		zap.Bool("windowElapsed", details.WindowElapsed))
	return EvalOutcome{Advance: true}, nil
}

// dispatchWindowElapsed measures the response window from the Notification
// step's completion, which is when the batch actually went out. An absent
// completion time means the clock has not started.
func (s *DefaultWorkflowService) dispatchWindowElapsed(run *models.WorkflowRun) bool {
	step, err := s.StepRepo.GetByRunAndName(run.ID, models.StepNotification)
	if err != nil || step.CompletedAt == nil {
		return false
	}
	return time.Since(*step.CompletedAt) >= s.responseWindow()
}

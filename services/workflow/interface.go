package workflow

import (
	"context"
	"time"

	bookingRepo "github.com/rasel1911/onelimo/database/repository/booking"
	userRepo "github.com/rasel1911/onelimo/database/repository/user"
	workflowRepo "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/intelligence"
	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/services/matching"
	"github.com/rasel1911/onelimo/services/notification"
	"github.com/rasel1911/onelimo/services/quotes"
)

// TriggerPayload is what the booking front-end submits to start a run.
type TriggerPayload struct {
	BookingRequest models.BookingRequest `json:"bookingRequest"`
	User           models.User           `json:"user"`
}

// RunStatus is the queryable view of a run: the run itself plus every step
// row, so partial progress is never hidden.
type RunStatus struct {
	Run   models.WorkflowRun    `json:"run"`
	Steps []models.WorkflowStep `json:"steps"`
}

// EvalOutcome is the re-entrant Providers-step verdict.
type EvalOutcome struct {
	Advance      bool `json:"advance"`
	StillWaiting bool `json:"stillWaiting"`
}

// TaskEnqueuer hands steps to the durable-execution host. Dispatch is
// best-effort and non-blocking: failures are observable only via logs.
type TaskEnqueuer interface {
	EnqueueAdvance(runID string)
	EnqueueResponseCheck(runID string, delay time.Duration)
}

// WorkflowService drives the 8-stage booking fulfillment state machine.
type WorkflowService interface {
	// StartRun creates the run with all 8 step rows and executes the
	// synchronous head of the workflow (Request, Message, Notification).
	StartRun(ctx context.Context, trigger TriggerPayload) (*models.WorkflowRun, error)
	// Advance executes the next pending step that is ready to run.
	Advance(ctx context.Context, runID string) error
	// EvaluateResponses re-entrantly checks the passive Providers step:
	// advance when everyone responded or the window elapsed.
	EvaluateResponses(ctx context.Context, runID string) (EvalOutcome, error)
	// GetRunStatus returns the run and all its step rows.
	GetRunStatus(ctx context.Context, runID string) (*RunStatus, error)

	// External callback entry points, reached through signed action links.
	CheckProviderLinkStatus(ctx context.Context, hash string) (linkcodec.LinkStatus, error)
	GetProviderLinkView(ctx context.Context, hash string) (*models.WorkflowProvider, *models.BookingRequest, error)
	RecordProviderResponse(ctx context.Context, hash, action, notes string) (*models.WorkflowProvider, error)
	RecordProviderQuote(ctx context.Context, hash string, amount float64, notes string) (*models.WorkflowProvider, error)
	GetQuotesForCustomer(ctx context.Context, hash string) (*models.WorkflowRun, []models.WorkflowQuote, error)
	RecordUserQuoteSelection(ctx context.Context, hash, quoteID string) error
	RecordUserDecline(ctx context.Context, hash, notes string) error
}

// DefaultWorkflowService implements WorkflowService.
type DefaultWorkflowService struct {
	RunRepo          workflowRepo.WorkflowRunRepository
	StepRepo         workflowRepo.WorkflowStepRepository
	ProviderRepo     workflowRepo.WorkflowProviderRepository
	QuoteRepo        workflowRepo.WorkflowQuoteRepository
	NotificationRepo workflowRepo.WorkflowNotificationRepository
	BookingRepo      bookingRepo.BookingRequestRepository
	UserRepo         userRepo.UserRepository

	Matcher  matching.MatchingService
	Notifier notification.NotificationService
	Ranker   quotes.Ranker
	Oracle   intelligence.AnalysisOracle
	Codec    *linkcodec.Codec
	Queue    TaskEnqueuer
	Renderer TemplateRenderer

	// ResponseWindow bounds how long the Providers step waits before
	// advancing with whatever arrived.
	ResponseWindow time.Duration
	// CheckInterval is the host's re-check cadence while still waiting.
	CheckInterval time.Duration
}

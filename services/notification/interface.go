package notification

import (
	"context"

	workflowRepo "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/linkcodec"
)

// Message is a pre-rendered notification: bodies arrive from the external
// templating collaborator, the dispatcher only orchestrates delivery.
type Message struct {
	Subject   string
	EmailBody string
	SMSBody   string
}

// EmailSender delivers one pre-rendered email.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// SMSSender delivers one pre-rendered SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient, text string) error
}

// ProviderMessageRenderer is the opaque template-render capability for the
// provider path: given a provider and its freshly issued action links, it
// returns the message to deliver.
type ProviderMessageRenderer func(p models.WorkflowProvider, viewURL, acceptURL, declineURL string) Message

// QuoteMessageRenderer is the render capability for the customer
// quote-selection path.
type QuoteMessageRenderer func(quoteURL string) Message

// BatchResult aggregates one fan-out attempt. Zero successes with N
// failures is a normal return value, never a raised error.
type BatchResult struct {
	Success      bool     `json:"success"`
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	Errors       []string `json:"errors,omitempty"`
}

// NotificationService fans out workflow messages across channels and
// recipients, capturing every per-unit outcome.
type NotificationService interface {
	// DispatchToProviders issues an action link per provider, persists it
	// before sending, then attempts SMS and email concurrently per provider.
	DispatchToProviders(ctx context.Context, run *models.WorkflowRun, providers []models.WorkflowProvider, render ProviderMessageRenderer) BatchResult
	// SendCustomerQuoteNotification mirrors the provider path with the
	// quote-link variant. Missing contact info is a recorded non-fatal error.
	SendCustomerQuoteNotification(ctx context.Context, run *models.WorkflowRun, contact models.ContactInfo, render QuoteMessageRenderer) BatchResult
	// SendDirect delivers an already rendered message to one contact over
	// every available channel.
	SendDirect(ctx context.Context, runID, workflowProviderID string, contact models.ContactInfo, msg Message) BatchResult
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Email            EmailSender
	SMS              SMSSender
	Codec            *linkcodec.Codec
	WorkflowProvider workflowRepo.WorkflowProviderRepository
	RunRepo          workflowRepo.WorkflowRunRepository
	NotificationRepo workflowRepo.WorkflowNotificationRepository
	BaseURL          string
	LinkExpiryHours  int
}

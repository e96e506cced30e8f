package workflowRepo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rasel1911/onelimo/models"
)

// WorkflowRunRepository defines data access for workflow runs.
type WorkflowRunRepository interface {
	// Create inserts a new run record.
	Create(run *models.WorkflowRun) error
	// Update replaces an existing run record.
	Update(run *models.WorkflowRun) error
	// UpdateSetDocument applies a partial $set update to a run.
	UpdateSetDocument(id string, updateDoc bson.M) error
	// GetByID retrieves a run by its unique ID.
	GetByID(id string) (*models.WorkflowRun, error)
	// GetByBookingRequestID retrieves the run for a booking request, or nil.
	GetByBookingRequestID(bookingRequestID string) (*models.WorkflowRun, error)
	// GetByCustomerLinkHash retrieves the run whose quote link carries the hash, or nil.
	GetByCustomerLinkHash(hash string) (*models.WorkflowRun, error)
}

// WorkflowStepRepository defines data access for workflow step rows.
type WorkflowStepRepository interface {
	// CreateMany inserts all step rows for a run in one batch.
	CreateMany(steps []models.WorkflowStep) error
	// Update replaces an existing step record.
	Update(step *models.WorkflowStep) error
	// GetByRunID retrieves all step rows for a run ordered by step number.
	GetByRunID(runID string) ([]models.WorkflowStep, error)
	// GetByRunAndName retrieves one step row by run and fixed step name.
	GetByRunAndName(runID, name string) (*models.WorkflowStep, error)
}

// WorkflowProviderRepository defines data access for contacted-provider rows.
type WorkflowProviderRepository interface {
	// CreateMany inserts the contacted-provider rows for a run in one batch.
	CreateMany(providers []models.WorkflowProvider) error
	// Update replaces an existing contacted-provider record.
	Update(provider *models.WorkflowProvider) error
	// UpdateSetDocument applies a partial $set update to a contacted provider.
	UpdateSetDocument(id string, updateDoc bson.M) error
	// GetByID retrieves a contacted provider by its unique ID.
	GetByID(id string) (*models.WorkflowProvider, error)
	// GetByRunID retrieves all contacted providers for a run.
	GetByRunID(runID string) ([]models.WorkflowProvider, error)
	// GetByLinkHash retrieves the contacted provider holding the link hash, or nil.
	GetByLinkHash(hash string) (*models.WorkflowProvider, error)
}

// WorkflowQuoteRepository defines data access for analyzed quotes.
type WorkflowQuoteRepository interface {
	// Create inserts a new quote record.
	Create(quote *models.WorkflowQuote) error
	// GetByID retrieves a quote by its unique ID.
	GetByID(id string) (*models.WorkflowQuote, error)
	// GetByRunID retrieves all quotes for a run.
	GetByRunID(runID string) ([]models.WorkflowQuote, error)
	// SelectByUser marks one quote as user-selected and clears the flag on
	// every other quote of the same run.
	SelectByUser(runID, quoteID string) error
}

// WorkflowNotificationRepository defines data access for send-attempt audit rows.
type WorkflowNotificationRepository interface {
	// Create appends a new send-attempt record.
	Create(n *models.WorkflowNotification) error
	// GetByRunID retrieves all send attempts for a run.
	GetByRunID(runID string) ([]models.WorkflowNotification, error)
	// UpdateStatus sets the delivery/engagement status reported by a callback.
	UpdateStatus(id, status, errCode, errMessage string) error
	// MarkResponse flags the notification as having produced a response.
	MarkResponse(id string) error
}

package models

import "time"

// The 8 fixed step names, in execution order.
const (
	StepRequest      = "Request"
	StepMessage      = "Message"
	StepNotification = "Notification"
	StepProviders    = "Providers"
	StepQuotes       = "Quotes"
	StepUserResponse = "User Response"
	StepConfirmation = "Confirmation"
	StepComplete     = "Complete"
)

// StepOrder lists every step name by ordinal (1-based).
var StepOrder = []string{
	StepRequest,
	StepMessage,
	StepNotification,
	StepProviders,
	StepQuotes,
	StepUserResponse,
	StepConfirmation,
	StepComplete,
}

// StepNumber returns the 1-based ordinal of a step name, or 0 if unknown.
func StepNumber(name string) int {
	for i, n := range StepOrder {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// WorkflowStep statuses.
const (
	StepPending    = "pending"
	StepInProgress = "in_progress"
	StepCompleted  = "completed"
	StepFailed     = "failed"
)

// WorkflowStep is one row per (run, step name). All 8 rows are created
// together at run initialization and individually promoted by the
// orchestrator; rows are never deleted.
type WorkflowStep struct {
	ID            string      `bson:"id" json:"id"`
	WorkflowRunID string      `bson:"workflow_run_id" json:"workflowRunId"`
	Name          string      `bson:"name" json:"name"`
	Number        int         `bson:"number" json:"number"`
	Status        string      `bson:"status" json:"status"`
	Details       StepDetails `bson:"details,omitempty" json:"details,omitempty"`
	ErrorMessage  string      `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	RetryCount    int         `bson:"retry_count,omitempty" json:"retryCount,omitempty"`
	StartedAt     *time.Time  `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt   *time.Time  `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updatedAt"`
}

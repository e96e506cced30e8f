package models

import "time"

// Notification channel types.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification delivery statuses.
const (
	NotificationSent      = "sent"
	NotificationFailed    = "failed"
	NotificationDelivered = "delivered"
	NotificationOpened    = "opened"
	NotificationClicked   = "clicked"
)

// WorkflowNotification is an append-only audit record of one (channel,
// recipient) send attempt. Status is updated only by delivery and
// engagement callbacks.
type WorkflowNotification struct {
	ID                 string `bson:"id" json:"id"`
	WorkflowRunID      string `bson:"workflow_run_id" json:"workflowRunId"`
	WorkflowProviderID string `bson:"workflow_provider_id,omitempty" json:"workflowProviderId,omitempty"`
	Type               string `bson:"type" json:"type"` // "email" or "sms"
	Recipient          string `bson:"recipient" json:"recipient"`
	Status             string `bson:"status" json:"status"`
	ErrorCode          string `bson:"error_code,omitempty" json:"errorCode,omitempty"`
	ErrorMessage       string `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	RetryCount         int    `bson:"retry_count,omitempty" json:"retryCount,omitempty"`
	HasResponse        bool   `bson:"has_response" json:"hasResponse"`

	SentAt    time.Time `bson:"sent_at" json:"sentAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

package models

import "time"

// Contact statuses for a WorkflowProvider.
const (
	ContactPending  = "pending"
	ContactNotified = "notified"
	ContactFailed   = "failed"
)

// Provider response statuses.
const (
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"
)

// WorkflowProvider is one row per provider contacted for a run. Created in
// bulk at the Notification step, mutated as responses and quotes arrive,
// never deleted.
type WorkflowProvider struct {
	ID                string `bson:"id" json:"id"`
	WorkflowRunID     string `bson:"workflow_run_id" json:"workflowRunId"`
	ServiceProviderID string `bson:"service_provider_id,omitempty" json:"serviceProviderId,omitempty"`
	Name              string `bson:"name" json:"name"`
	Email             string `bson:"email,omitempty" json:"email,omitempty"`
	Phone             string `bson:"phone,omitempty" json:"phone,omitempty"`
	MatchScore        int    `bson:"match_score" json:"matchScore"`

	ContactStatus string `bson:"contact_status" json:"contactStatus"`

	HasResponded   bool       `bson:"has_responded" json:"hasResponded"`
	ResponseStatus string     `bson:"response_status,omitempty" json:"responseStatus,omitempty"`
	ResponseTime   *time.Time `bson:"response_time,omitempty" json:"responseTime,omitempty"`
	ResponseNotes  string     `bson:"response_notes,omitempty" json:"responseNotes,omitempty"`

	HasQuoted   bool       `bson:"has_quoted" json:"hasQuoted"`
	QuoteAmount float64    `bson:"quote_amount,omitempty" json:"quoteAmount,omitempty"`
	QuoteTime   *time.Time `bson:"quote_time,omitempty" json:"quoteTime,omitempty"`

	// Signed action link issued to this provider.
	LinkHash    string    `bson:"link_hash,omitempty" json:"linkHash,omitempty"`
	LinkPayload string    `bson:"link_payload,omitempty" json:"-"`
	LinkExpiry  time.Time `bson:"link_expiry,omitempty" json:"linkExpiry,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Contact returns the contacted provider's reachable channels.
func (p WorkflowProvider) Contact() ContactInfo {
	return ContactInfo{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

package models

import "time"

// Quote statuses.
const (
	QuoteAccepted = "accepted"
	QuoteDeclined = "declined"
)

// WorkflowQuote is one analyzed quote. Created once per analyzed response;
// the two selection flags are the only post-creation mutations.
type WorkflowQuote struct {
	ID                 string  `bson:"id" json:"id"`
	WorkflowRunID      string  `bson:"workflow_run_id" json:"workflowRunId"`
	WorkflowProviderID string  `bson:"workflow_provider_id" json:"workflowProviderId"`
	Amount             float64 `bson:"amount" json:"amount"`
	Status             string  `bson:"status" json:"status"` // "accepted" or "declined"

	// Oracle scores, each 0-100.
	OverallScore         int `bson:"overall_score" json:"overallScore"`
	ViabilityScore       int `bson:"viability_score" json:"viabilityScore"`
	SeriousnessScore     int `bson:"seriousness_score" json:"seriousnessScore"`
	ProfessionalismScore int `bson:"professionalism_score" json:"professionalismScore"`

	Strengths     []string `bson:"strengths,omitempty" json:"strengths,omitempty"`
	Concerns      []string `bson:"concerns,omitempty" json:"concerns,omitempty"`
	KeyPoints     []string `bson:"key_points,omitempty" json:"keyPoints,omitempty"`
	AnalysisNotes string   `bson:"analysis_notes,omitempty" json:"analysisNotes,omitempty"`

	IsSelectedByAi   bool `bson:"is_selected_by_ai" json:"isSelectedByAi"`
	IsSelectedByUser bool `bson:"is_selected_by_user" json:"isSelectedByUser"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

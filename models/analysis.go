package models

// MessageAnalysis is the oracle's verdict on a free-text booking message.
type MessageAnalysis struct {
	Urgency     string   `json:"urgency"` // "low", "medium", "high"
	CleanedText string   `json:"cleanedText"`
	KeyPoints   []string `json:"keyPoints,omitempty"`
	Score       int      `json:"score"`
}

// QuoteForAnalysis is one normalized quote submitted to the oracle.
type QuoteForAnalysis struct {
	QuoteID      string  `json:"quoteId"`
	ProviderID   string  `json:"providerId"`
	ProviderName string  `json:"providerName"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes,omitempty"`
	Reputation   float64 `json:"reputation,omitempty"`
}

// QuoteScore is the oracle's per-quote assessment.
type QuoteScore struct {
	QuoteID              string   `json:"quoteId"`
	OverallScore         int      `json:"overallScore"`
	ViabilityScore       int      `json:"viabilityScore"`
	SeriousnessScore     int      `json:"seriousnessScore"`
	ProfessionalismScore int      `json:"professionalismScore"`
	Strengths            []string `json:"strengths,omitempty"`
	Concerns             []string `json:"concerns,omitempty"`
	KeyPoints            []string `json:"keyPoints,omitempty"`
	Recommendation       string   `json:"recommendation,omitempty"`
}

// QuoteAnalysis is the oracle's full output for a quote batch.
type QuoteAnalysis struct {
	Scores           []QuoteScore `json:"scores"`
	SelectedQuoteIDs []string     `json:"selectedQuoteIds"`
	MarketSummary    string       `json:"marketSummary,omitempty"`
}

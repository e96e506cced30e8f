package intelligence

import (
	"context"

	"github.com/rasel1911/onelimo/models"
)

// AnalysisOracle is the external scoring capability the workflow delegates
// to. Both operations are black boxes with a fixed input/output contract.
type AnalysisOracle interface {
	// AnalyzeMessage scores a free-text booking message.
	AnalyzeMessage(ctx context.Context, text string) (*models.MessageAnalysis, error)
	// AnalyzeQuotes scores a normalized quote batch against the booking
	// context and picks a selection set.
	AnalyzeQuotes(ctx context.Context, quotes []models.QuoteForAnalysis, booking models.BookingRequest) (*models.QuoteAnalysis, error)
}

// NewAnalysisOracle returns the Gemini-backed oracle when an API key is
// configured, otherwise the deterministic heuristic one, so the workflow
// completes either way.
func NewAnalysisOracle(apiKey, model string) AnalysisOracle {
	if apiKey == "" {
		return &HeuristicOracle{}
	}
	return &GeminiOracle{
		client:   NewGeminiClient(apiKey, model),
		fallback: &HeuristicOracle{},
	}
}

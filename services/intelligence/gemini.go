// File: services/intelligence/gemini.go
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// GeminiOracle delegates scoring to Gemini, falling back to the heuristic
// oracle when the model call or its JSON output fails.
type GeminiOracle struct {
	client   *GeminiClient
	fallback AnalysisOracle
}

// AnalyzeMessage scores a free-text booking message.
func (o *GeminiOracle) AnalyzeMessage(ctx context.Context, text string) (*models.MessageAnalysis, error) {
	prompt := fmt.Sprintf(`You analyze customer booking messages for a chauffeur service.
Respond with JSON only, no prose, matching exactly:
{"urgency":"low|medium|high","cleanedText":"...","keyPoints":["..."],"score":0-100}

Message:
%s`, text)

	raw, err := o.client.GenerateContent(ctx, prompt)
	if err != nil {
		utils.GetLogger().Warn("Gemini message analysis failed, using heuristic", zap.Error(err))
		return o.fallback.AnalyzeMessage(ctx, text)
	}

	var analysis models.MessageAnalysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &analysis); err != nil {
		utils.GetLogger().Warn("Gemini message analysis unparsable, using heuristic", zap.Error(err))
		return o.fallback.AnalyzeMessage(ctx, text)
	}
	return &analysis, nil
}

// AnalyzeQuotes scores a quote batch and picks a selection set.
func (o *GeminiOracle) AnalyzeQuotes(ctx context.Context, quotes []models.QuoteForAnalysis, booking models.BookingRequest) (*models.QuoteAnalysis, error) {
	if len(quotes) == 0 {
		return &models.QuoteAnalysis{}, nil
	}

	quotesJSON, err := json.Marshal(quotes)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize quotes: %w", err)
	}

	prompt := fmt.Sprintf(`You evaluate provider quotes for a chauffeur booking
(%s to %s, vehicle %q, %d passengers).
Score each quote 0-100 on overall, viability, seriousness and professionalism,
list strengths/concerns/keyPoints, and pick the best quote id(s).
Respond with JSON only matching exactly:
{"scores":[{"quoteId":"...","overallScore":0,"viabilityScore":0,"seriousnessScore":0,
"professionalismScore":0,"strengths":[],"concerns":[],"keyPoints":[],"recommendation":""}],
"selectedQuoteIds":["..."],"marketSummary":"..."}

Quotes:
%s`, booking.Pickup.City, booking.Dropoff.City, booking.VehicleType, booking.PassengerCount, quotesJSON)

	raw, err := o.client.GenerateContent(ctx, prompt)
	if err != nil {
		utils.GetLogger().Warn("Gemini quote analysis failed, using heuristic", zap.Error(err))
		return o.fallback.AnalyzeQuotes(ctx, quotes, booking)
	}

	var analysis models.QuoteAnalysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &analysis); err != nil {
		utils.GetLogger().Warn("Gemini quote analysis unparsable, using heuristic", zap.Error(err))
		return o.fallback.AnalyzeQuotes(ctx, quotes, booking)
	}
	return &analysis, nil
}

// stripFences removes markdown code fences Gemini sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// File: services/intelligence/heuristic.go
package intelligence

import (
	"context"
	"sort"
	"strings"

	"github.com/rasel1911/onelimo/models"
)

// HeuristicOracle is a deterministic stand-in for the model-backed oracle.
// It keeps the workflow running when no API key is configured or the model
// is unreachable.
type HeuristicOracle struct{}

var urgentKeywords = []string{"urgent", "asap", "immediately", "today", "tonight", "emergency", "now"}

// AnalyzeMessage scores urgency from a keyword scan and passes the text
// through trimmed.
func (o *HeuristicOracle) AnalyzeMessage(ctx context.Context, text string) (*models.MessageAnalysis, error) {
	lower := strings.ToLower(text)

	hits := 0
	var keyPoints []string
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			hits++
			keyPoints = append(keyPoints, "mentions "+kw)
		}
	}

	urgency := "low"
	score := 40
	switch {
	case hits >= 2:
		urgency = "high"
		score = 90
	case hits == 1:
		urgency = "medium"
		score = 65
	}

	return &models.MessageAnalysis{
		Urgency:     urgency,
		CleanedText: strings.TrimSpace(text),
		KeyPoints:   keyPoints,
		Score:       score,
	}, nil
}

// AnalyzeQuotes scores accepted quotes by price position and provider
// reputation, selecting the single best one.
func (o *HeuristicOracle) AnalyzeQuotes(ctx context.Context, quotes []models.QuoteForAnalysis, booking models.BookingRequest) (*models.QuoteAnalysis, error) {
	if len(quotes) == 0 {
		return &models.QuoteAnalysis{}, nil
	}

	var lowest, highest float64
	for i, q := range quotes {
		if i == 0 || q.Amount < lowest {
			lowest = q.Amount
		}
		if q.Amount > highest {
			highest = q.Amount
		}
	}
	spread := highest - lowest

	analysis := &models.QuoteAnalysis{}
	for _, q := range quotes {
		score := models.QuoteScore{QuoteID: q.QuoteID}

		if q.Status != models.QuoteAccepted {
			score.OverallScore = 10
			score.Concerns = append(score.Concerns, "provider declined the request")
			analysis.Scores = append(analysis.Scores, score)
			continue
		}

		// Cheaper quotes score higher; reputation tops it up.
		pricePts := 50
		if spread > 0 {
			pricePts = 50 - int(((q.Amount-lowest)/spread)*30)
		}
		repPts := int(q.Reputation / 4)
		if repPts > 25 {
			repPts = 25
		}

		score.ViabilityScore = pricePts + 30
		score.SeriousnessScore = 60 + repPts
		score.ProfessionalismScore = 55 + repPts
		score.OverallScore = pricePts + repPts + 20
		if score.OverallScore > 100 {
			score.OverallScore = 100
		}
		if q.Amount == lowest {
			score.Strengths = append(score.Strengths, "lowest price in batch")
		}
		if q.Reputation >= 80 {
			score.Strengths = append(score.Strengths, "strong reputation")
		}
		score.Recommendation = "viable"

		analysis.Scores = append(analysis.Scores, score)
	}

	// Select the top-scoring accepted quote.
	ranked := append([]models.QuoteScore(nil), analysis.Scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})
	for _, r := range ranked {
		if r.OverallScore > 10 {
			analysis.SelectedQuoteIDs = []string{r.QuoteID}
			break
		}
	}

	analysis.MarketSummary = marketSummary(len(quotes), lowest, highest)
	return analysis, nil
}

func marketSummary(count int, lowest, highest float64) string {
	if count == 1 {
		return "single quote received"
	}
	if lowest == highest {
		return "quotes are uniformly priced"
	}
	return "quotes span a meaningful price range; cheapest offer favored"
}

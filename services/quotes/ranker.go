// File: services/quotes/ranker.go
package quotes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	providerRepo "github.com/rasel1911/onelimo/database/repository/provider"
	workflowRepo "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/intelligence"
	"github.com/rasel1911/onelimo/utils"
)

// RankResult is the persisted outcome of one ranking pass.
type RankResult struct {
	Quotes           []models.WorkflowQuote
	SelectedQuoteIDs []string
	MarketSummary    string
}

// Ranker scores quoted responses through the analysis oracle and persists
// one WorkflowQuote per analyzed input.
type Ranker interface {
	RankQuotes(ctx context.Context, run *models.WorkflowRun, quoted []models.WorkflowProvider, booking models.BookingRequest) (*RankResult, error)
}

// DefaultRanker implements Ranker.
type DefaultRanker struct {
	Oracle       intelligence.AnalysisOracle
	QuoteRepo    workflowRepo.WorkflowQuoteRepository
	ProviderRepo providerRepo.ProviderRepository
}

// RankQuotes normalizes the quoted responses, delegates scoring to the
// oracle and persists the structured scores. An empty oracle result is
// reported through an empty RankResult, not an error; the caller decides
// what that means for the run.
func (r *DefaultRanker) RankQuotes(ctx context.Context, run *models.WorkflowRun, quoted []models.WorkflowProvider, booking models.BookingRequest) (*RankResult, error) {
	inputs := r.normalize(quoted)
	if len(inputs) == 0 {
		return &RankResult{}, nil
	}

	analysis, err := r.Oracle.AnalyzeQuotes(ctx, inputs, booking)
	if err != nil {
		return nil, fmt.Errorf("quote analysis failed: %w", err)
	}
	if len(analysis.Scores) == 0 {
		return &RankResult{MarketSummary: analysis.MarketSummary}, nil
	}

	selected := make(map[string]bool, len(analysis.SelectedQuoteIDs))
	for _, id := range analysis.SelectedQuoteIDs {
		selected[id] = true
	}

	byQuoteID := make(map[string]models.QuoteForAnalysis, len(inputs))
	for _, in := range inputs {
		byQuoteID[in.QuoteID] = in
	}

	result := &RankResult{
		SelectedQuoteIDs: analysis.SelectedQuoteIDs,
		MarketSummary:    analysis.MarketSummary,
	}

	for _, score := range analysis.Scores {
		in, ok := byQuoteID[score.QuoteID]
		if !ok {
			utils.GetLogger().Warn("Oracle scored an unknown quote id",
				zap.String("quoteId", score.QuoteID), zap.String("workflowRunId", run.ID))
			continue
		}

		quote := models.WorkflowQuote{
			ID:                   score.QuoteID,
			WorkflowRunID:        run.ID,
			WorkflowProviderID:   in.ProviderID,
			Amount:               in.Amount,
			Status:               in.Status,
			OverallScore:         score.OverallScore,
			ViabilityScore:       score.ViabilityScore,
			SeriousnessScore:     score.SeriousnessScore,
			ProfessionalismScore: score.ProfessionalismScore,
			Strengths:            score.Strengths,
			Concerns:             score.Concerns,
			KeyPoints:            score.KeyPoints,
			AnalysisNotes:        score.Recommendation,
			IsSelectedByAi:       selected[score.QuoteID],
		}

		if err := r.QuoteRepo.Create(&quote); err != nil {
			return nil, fmt.Errorf("failed to persist quote for provider %s: %w", in.ProviderID, err)
		}
		result.Quotes = append(result.Quotes, quote)
	}

	return result, nil
}

// normalize turns quoted workflow-provider rows into the oracle's input
// shape, pre-assigning quote ids so the oracle's selection set maps back.
func (r *DefaultRanker) normalize(quoted []models.WorkflowProvider) []models.QuoteForAnalysis {
	var inputs []models.QuoteForAnalysis
	for _, p := range quoted {
		if !p.HasQuoted {
			continue
		}

		status := models.QuoteAccepted
		if p.ResponseStatus == models.ResponseDeclined {
			status = models.QuoteDeclined
		}

		var reputation float64
		if p.ServiceProviderID != "" {
			if sp, err := r.ProviderRepo.GetByID(p.ServiceProviderID); err == nil {
				reputation = sp.Reputation
			}
		}

		inputs = append(inputs, models.QuoteForAnalysis{
			QuoteID:      uuid.New().String(),
			ProviderID:   p.ID,
			ProviderName: p.Name,
			Amount:       p.QuoteAmount,
			Status:       status,
			Notes:        p.ResponseNotes,
			Reputation:   reputation,
		})
	}
	return inputs
}

package matching

import (
	providerRepo "github.com/rasel1911/onelimo/database/repository/provider"
	"github.com/rasel1911/onelimo/models"
)

// ScoredProvider holds a provider along with its computed match score.
type ScoredProvider struct {
	Provider models.ServiceProvider
	Score    int
	Location int
	Service  int
	Quality  int
}

// MatchingService defines the interface for matching providers against a
// booking request.
type MatchingService interface {
	// MatchProviders scores the active pool and returns the ranked matches.
	// An empty result is a valid, non-error outcome.
	MatchProviders(req models.BookingRequest) ([]ScoredProvider, error)
	// KnownCities lists the cities currently serviced by the pool.
	KnownCities() ([]string, error)
}

// DefaultMatchingService implements MatchingService.
type DefaultMatchingService struct {
	ProviderRepo providerRepo.ProviderRepository
	AreaCache    *AreaCache
	MinScore     int            // minimum-match threshold, default 40
	MaxResults   int            // result truncation, default 5
	CompatTable  CompatTable    // vehicle-type fallback adjacency, nil uses DefaultCompatTable
}

// File: services/matching/matcher.go
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/utils"
)

// Score caps per axis.
const (
	MaxLocationPoints = 50
	MaxServicePoints  = 20
	MaxQualityPoints  = 30

	DefaultMinScore   = 40
	DefaultMaxResults = 5
)

// CompatTable maps a requested vehicle type to the provider types it can
// fall back to at reduced weight. Injected via config so deployments can
// tune it without a rebuild.
type CompatTable map[string][]string

// DefaultCompatTable is the stock vehicle-type adjacency.
var DefaultCompatTable = CompatTable{
	"sedan": {"suv", "other"},
	"suv":   {"sedan", "hummer", "other"},
	"other": {"sedan", "suv", "hummer", "limousine"},
}

// MatchProviders scores the active pool against the request and returns the
// ranked matches at or above the minimum threshold, truncated to the
// configured maximum. Ties keep original pool order. An empty match list is
// a valid outcome, not an error.
func (s *DefaultMatchingService) MatchProviders(req models.BookingRequest) ([]ScoredProvider, error) {
	if req.Pickup.City == "" {
		return nil, fmt.Errorf("booking request missing pickup city")
	}

	pool, err := s.ProviderRepo.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load provider pool: %w", err)
	}

	minScore := s.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	maxResults := s.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	table := s.CompatTable
	if table == nil {
		table = DefaultCompatTable
	}

	var matched []ScoredProvider
	for _, p := range pool {
		if !p.Eligible() {
			continue
		}
		sp := scoreProvider(req, p, table)
		if sp.Score < minScore {
			continue
		}
		matched = append(matched, sp)
	}

	// Stable sort keeps original pool order for equal scores.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	if len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	if len(matched) == 0 {
		utils.GetLogger().Info("No providers matched booking request",
			zap.String("bookingRequestId", req.ID),
			zap.String("pickupCity", req.Pickup.City))
	}
	return matched, nil
}

// KnownCities lists the cities currently serviced by the pool, via the TTL
// cache with its static fallback.
func (s *DefaultMatchingService) KnownCities() ([]string, error) {
	if s.AreaCache == nil {
		return s.ProviderRepo.DistinctCities()
	}
	return s.AreaCache.Get(false)
}

func scoreProvider(req models.BookingRequest, p models.ServiceProvider, table CompatTable) ScoredProvider {
	loc := locationScore(req, p)
	svc := serviceTypeScore(req.VehicleType, p.ServiceTypes, table)
	qual := qualityScore(p.ResponseTime, p.Reputation)

	return ScoredProvider{
		Provider: p,
		Score:    loc + svc + qual,
		Location: loc,
		Service:  svc,
		Quality:  qual,
	}
}

// locationScore awards up to 50 points: pickup city 25, pickup postcode 10,
// and the same two checks for dropoff at half weight (10 and 5).
func locationScore(req models.BookingRequest, p models.ServiceProvider) int {
	score := 0
	if cityMatch(req.Pickup.City, p.ServiceLocations) {
		score += 25
	}
	if areaMatch(req.Pickup.Postcode, p.AreaCovered) {
		score += 10
	}
	if cityMatch(req.Dropoff.City, p.ServiceLocations) {
		score += 10
	}
	if areaMatch(req.Dropoff.Postcode, p.AreaCovered) {
		score += 5
	}
	return score
}

// serviceTypeScore awards 20 for an exact or substring match, 10 for a
// compatible type per the adjacency table, else a flat 5.
func serviceTypeScore(requested string, offered []string, table CompatTable) int {
	requested = normalize(requested)
	if requested == "" {
		return 5
	}

	for _, t := range offered {
		t = normalize(t)
		if t == requested || strings.Contains(t, requested) || strings.Contains(requested, t) {
			return MaxServicePoints
		}
	}

	for _, compat := range table[requested] {
		for _, t := range offered {
			if normalize(t) == compat {
				return 10
			}
		}
	}
	return 5
}

// qualityScore awards up to 30 points: a descending step function over the
// provider's typical response time plus reputation normalized to 0-15.
func qualityScore(responseTimeMins int, reputation float64) int {
	var rt int
	switch {
	case responseTimeMins <= 30:
		rt = 15
	case responseTimeMins <= 60:
		rt = 14
	case responseTimeMins <= 90:
		rt = 13
	case responseTimeMins <= 120:
		rt = 12
	case responseTimeMins <= 150:
		rt = 11
	case responseTimeMins <= 180:
		rt = 10
	case responseTimeMins <= 240:
		rt = 9
	default:
		rt = 8
	}

	rep := math.Round(reputation / 10)
	if rep < 0 {
		rep = 0
	}
	if rep > 15 {
		rep = 15
	}
	return rt + int(rep)
}

func cityMatch(city string, serviced []string) bool {
	city = normalize(city)
	if city == "" {
		return false
	}
	for _, s := range serviced {
		if normalize(s) == city {
			return true
		}
	}
	return false
}

// areaMatch checks a postcode against covered-area values. "all" always
// matches; otherwise a substring match either way counts.
func areaMatch(postcode string, areas []string) bool {
	postcode = normalize(postcode)
	if postcode == "" {
		return false
	}
	for _, a := range areas {
		a = normalize(a)
		if a == "all" {
			return true
		}
		if a != "" && (strings.Contains(postcode, a) || strings.Contains(a, postcode)) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// File: handlers/matching.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rasel1911/onelimo/services/matching"
)

// MatchingHandler exposes the serviced-area view and its cache controls.
type MatchingHandler struct {
	Matcher   matching.MatchingService
	AreaCache *matching.AreaCache
}

func NewMatchingHandler(matcher matching.MatchingService, cache *matching.AreaCache) *MatchingHandler {
	return &MatchingHandler{Matcher: matcher, AreaCache: cache}
}

// GetKnownCities lists the cities currently serviced by the provider pool.
func (h *MatchingHandler) GetKnownCities(c *gin.Context) {
	cities, err := h.Matcher.KnownCities()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cities", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// RefreshAreaCache drops the cached city list so the next read refetches.
func (h *MatchingHandler) RefreshAreaCache(c *gin.Context) {
	h.AreaCache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "area cache invalidated"})
}

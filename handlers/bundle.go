// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking trigger.
	TriggerBooking gin.HandlerFunc

	// Run status and admin inspection.
	GetRunStatus        gin.HandlerFunc
	GetRunProviders     gin.HandlerFunc
	GetRunQuotes        gin.HandlerFunc
	GetRunNotifications gin.HandlerFunc

	// Provider action links.
	ProviderLinkAction gin.HandlerFunc
	ProviderLinkStatus gin.HandlerFunc
	ProviderLinkQuote  gin.HandlerFunc

	// Customer quote links.
	GetCustomerQuotes     gin.HandlerFunc
	SelectCustomerQuote   gin.HandlerFunc
	DeclineCustomerQuotes gin.HandlerFunc

	// Gateway callbacks.
	NotificationCallback gin.HandlerFunc

	// Serviced areas.
	GetKnownCities   gin.HandlerFunc
	RefreshAreaCache gin.HandlerFunc
}

package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rasel1911/onelimo/handlers"
	"github.com/rasel1911/onelimo/middleware"
	"github.com/rasel1911/onelimo/utils"
)

// RegisterBookingRoutes registers the booking trigger endpoint.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/booking-requests")
	{
		api.POST("", hb.TriggerBooking)
	}
}

// RegisterWorkflowRoutes registers run-status and admin inspection
// endpoints. The drill-down views require an admin token.
func RegisterWorkflowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/workflow")
	{
		api.GET("/:runID", hb.GetRunStatus)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthAdminMiddleware())
		admin.GET("/:runID/providers", hb.GetRunProviders)
		admin.GET("/:runID/quotes", hb.GetRunQuotes)
		admin.GET("/:runID/notifications", hb.GetRunNotifications)
	}
}

// RegisterLinkRoutes registers the unauthenticated signed-link endpoints.
// The link hash is the only credential.
func RegisterLinkRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	pl := r.Group("/api/pl")
	{
		pl.GET("/:hash", hb.ProviderLinkAction)
		pl.GET("/:hash/status", hb.ProviderLinkStatus)
		pl.POST("/:hash/quote", hb.ProviderLinkQuote)
	}

	ql := r.Group("/api/ql/quotes")
	{
		ql.GET("/:hash", hb.GetCustomerQuotes)
		ql.POST("/:hash/select", hb.SelectCustomerQuote)
		ql.POST("/:hash/decline", hb.DeclineCustomerQuotes)
	}
}

// RegisterCallbackRoutes registers the gateway delivery callback.
func RegisterCallbackRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/notifications/callback", hb.NotificationCallback)
}

// RegisterAreaRoutes registers the serviced-area endpoints.
func RegisterAreaRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/areas")
	{
		api.GET("/cities", hb.GetKnownCities)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthAdminMiddleware())
		admin.POST("/refresh", hb.RefreshAreaCache)
	}
}

// RegisterHealthRoute registers a health-check endpoint exposing the
// latest backing-store snapshot.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Hi, I'm Onelimo",
			"backends": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterWorkflowRoutes(r, hb)
	RegisterLinkRoutes(r, hb)
	RegisterCallbackRoutes(r, hb)
	RegisterAreaRoutes(r, hb)
	RegisterHealthRoute(r)
}

// File: onelimo/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/rasel1911/onelimo/config"
	"github.com/rasel1911/onelimo/cron"
	"github.com/rasel1911/onelimo/database"
	bookingRepoPkg "github.com/rasel1911/onelimo/database/repository/booking"
	providerRepoPkg "github.com/rasel1911/onelimo/database/repository/provider"
	userRepoPkg "github.com/rasel1911/onelimo/database/repository/user"
	workflowRepoPkg "github.com/rasel1911/onelimo/database/repository/workflow"
	"github.com/rasel1911/onelimo/handlers"
	"github.com/rasel1911/onelimo/middleware"
	"github.com/rasel1911/onelimo/routes"
	"github.com/rasel1911/onelimo/services/intelligence"
	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/services/matching"
	"github.com/rasel1911/onelimo/services/notification"
	"github.com/rasel1911/onelimo/services/quotes"
	"github.com/rasel1911/onelimo/services/workflow"
	"github.com/rasel1911/onelimo/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	codec, err := linkcodec.New(config.AppConfig.LinkSecret, config.AppConfig.LinkHashLength)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize link codec: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	runRepo := workflowRepoPkg.NewMongoRunRepo()
	stepRepo := workflowRepoPkg.NewMongoStepRepo()
	wfProviderRepo := workflowRepoPkg.NewMongoWorkflowProviderRepo()
	quoteRepo := workflowRepoPkg.NewMongoQuoteRepo()
	notificationRepo := workflowRepoPkg.NewMongoNotificationRepo()
	bookingRepo := bookingRepoPkg.NewMongoBookingRequestRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()
	providerRepo := providerRepoPkg.NewMongoProviderRepo()

	// services.
	areaCache := matching.NewAreaCache(
		providerRepo.DistinctCities,
		time.Duration(config.AppConfig.AreaCacheTTLMins)*time.Minute,
	)
	matcherService := &matching.DefaultMatchingService{
		ProviderRepo: providerRepo,
		AreaCache:    areaCache,
		MinScore:     config.AppConfig.MinMatchScore,
		MaxResults:   config.AppConfig.MaxMatchedProviders,
	}

	notificationService := &notification.DefaultNotificationService{
		Email: &notification.HTTPEmailSender{
			GatewayURL: config.AppConfig.EmailGatewayURL,
			From:       config.AppConfig.EmailFrom,
			APIKey:     config.AppConfig.GatewayAPIKey,
		},
		SMS: &notification.HTTPSMSSender{
			GatewayURL: config.AppConfig.SMSGatewayURL,
			From:       config.AppConfig.SMSFrom,
			APIKey:     config.AppConfig.GatewayAPIKey,
		},
		Codec:            codec,
		WorkflowProvider: wfProviderRepo,
		RunRepo:          runRepo,
		NotificationRepo: notificationRepo,
		BaseURL:          config.AppConfig.AppBaseURL,
		LinkExpiryHours:  config.AppConfig.LinkExpiryHrs,
	}

	oracle := intelligence.NewAnalysisOracle(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	ranker := &quotes.DefaultRanker{
		Oracle:       oracle,
		QuoteRepo:    quoteRepo,
		ProviderRepo: providerRepo,
	}

	enqueuer := cron.NewAsynqEnqueuer()
	defer enqueuer.Close()

	workflowService := &workflow.DefaultWorkflowService{
		RunRepo:          runRepo,
		StepRepo:         stepRepo,
		ProviderRepo:     wfProviderRepo,
		QuoteRepo:        quoteRepo,
		NotificationRepo: notificationRepo,
		BookingRepo:      bookingRepo,
		UserRepo:         userRepo,

		Matcher:  matcherService,
		Notifier: notificationService,
		Ranker:   ranker,
		Oracle:   oracle,
		Codec:    codec,
		Queue:    enqueuer,
		Renderer: workflow.PlainRenderer{},

		ResponseWindow: time.Duration(config.AppConfig.ResponseWindowMins) * time.Minute,
		CheckInterval:  time.Duration(config.AppConfig.ResponseCheckSecs) * time.Second,
	}

	// Start the durable-execution worker.
	cron.InitWorkflowWorker(workflowService)

	// handlers.
	bookingHandler := handlers.NewBookingHandler(bookingRepo, userRepo, workflowService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService, wfProviderRepo, quoteRepo, notificationRepo)
	providerLinkHandler := handlers.NewProviderLinkHandler(workflowService)
	quoteLinkHandler := handlers.NewQuoteLinkHandler(workflowService)
	callbackHandler := handlers.NewNotificationCallbackHandler(notificationRepo)
	matchingHandler := handlers.NewMatchingHandler(matcherService, areaCache)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		TriggerBooking: bookingHandler.TriggerBooking,

		GetRunStatus:        workflowHandler.GetRunStatus,
		GetRunProviders:     workflowHandler.GetRunProviders,
		GetRunQuotes:        workflowHandler.GetRunQuotes,
		GetRunNotifications: workflowHandler.GetRunNotifications,

		ProviderLinkAction: providerLinkHandler.HandleAction,
		ProviderLinkStatus: providerLinkHandler.LinkStatus,
		ProviderLinkQuote:  providerLinkHandler.SubmitQuote,

		GetCustomerQuotes:     quoteLinkHandler.GetQuotes,
		SelectCustomerQuote:   quoteLinkHandler.SelectQuote,
		DeclineCustomerQuotes: quoteLinkHandler.DeclineQuotes,

		NotificationCallback: callbackHandler.HandleCallback,

		GetKnownCities:   matchingHandler.GetKnownCities,
		RefreshAreaCache: matchingHandler.RefreshAreaCache,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Monitor backing services, including the queue's redis database.
	queueRedis := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	utils.StartHealthMonitor(utils.GetCacheClient(), queueRedis, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"
	"github.com/HummdG/taza-ticket-clean/cron"
	"github.com/HummdG/taza-ticket-clean/database"
	conversationRepo "github.com/HummdG/taza-ticket-clean/database/repository/conversation"
	"github.com/HummdG/taza-ticket-clean/handlers"
	"github.com/HummdG/taza-ticket-clean/middleware"
	"github.com/HummdG/taza-ticket-clean/routes"
	"github.com/HummdG/taza-ticket-clean/services/agent"
	"github.com/HummdG/taza-ticket-clean/services/airports"
	"github.com/HummdG/taza-ticket-clean/services/dates"
	"github.com/HummdG/taza-ticket-clean/services/flights"
	"github.com/HummdG/taza-ticket-clean/services/formatter"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"
	"github.com/HummdG/taza-ticket-clean/services/nlp"
	"github.com/HummdG/taza-ticket-clean/services/notification"
	"github.com/HummdG/taza-ticket-clean/services/search"
	"github.com/HummdG/taza-ticket-clean/services/storage"
	"github.com/HummdG/taza-ticket-clean/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	mediaService, err := storage.NewCloudinaryMedia(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize media storage: %v", err)
	}

	// Repositories.
	convRepo := conversationRepo.NewCachedConversationRepo(
		conversationRepo.NewMongoConversationRepo(),
		utils.GetCacheClient(),
		time.Duration(config.AppConfig.ConversationCacheTTLMinutes)*time.Minute,
	)

	// Language and speech services.
	gemini := ai.NewGeminiClient(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	transcriber := ai.NewGoogleTranscriber(config.AppConfig.GoogleCredsFile)
	synthesizer := ai.NewGoogleSynthesizer(config.AppConfig.GoogleCredsFile, config.AppConfig.SynthesisVoice)

	// Domain services.
	loc, err := time.LoadLocation(config.AppConfig.AppTimezone)
	if err != nil {
		logger.Sugar().Warnf("main: unknown timezone %q, using UTC", config.AppConfig.AppTimezone)
		loc = time.UTC
	}
	dateService := dates.NewService(loc, config.AppConfig.MinAdvanceDays)
	resolver := airports.NewResolver(gemini)

	supplier := flights.NewClient(flights.Credentials{
		ClientID:     config.AppConfig.TravelportClientID,
		ClientSecret: config.AppConfig.TravelportClientSecret,
		Username:     config.AppConfig.TravelportUsername,
		Password:     config.AppConfig.TravelportPassword,
		AccessGroup:  config.AppConfig.TravelportAccessGroup,
		OAuthURL:     config.AppConfig.TravelportOAuthURL,
		CatalogURL:   config.AppConfig.TravelportCatalogURL,
	})

	messenger := notification.NewTwilioMessenger(
		config.AppConfig.TwilioAccountSID,
		config.AppConfig.TwilioAuthToken,
		config.AppConfig.TwilioWhatsAppFrom,
	)

	flightAgent := agent.NewAgent(agent.Deps{
		LLM:          gemini,
		Repo:         convRepo,
		Reformulator: nlp.NewReformulator(gemini),
		Airports:     resolver,
		Dates:        dateService,
		Search:       search.NewStrategy(supplier, dateService),
		Formatter:    formatter.New(resolver),
		Synthesizer:  synthesizer,
		Media:        mediaService,
	})

	// Background sweep for aged voice replies.
	cron.InitMediaCleanupWorker(mediaService)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(routes.CORSMiddleware())

	webhookHandler := handlers.NewWebhookHandler(flightAgent, messenger, transcriber)
	adminHandler := handlers.NewAdminHandler(convRepo)
	healthHandler := handlers.NewHealthHandler()

	routes.RegisterWebhookRoutes(router, webhookHandler, middleware.TwilioSignatureMiddleware(messenger))
	routes.RegisterAdminRoutes(router, adminHandler)
	routes.RegisterHealthRoutes(router, healthHandler)

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

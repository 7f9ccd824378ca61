// File: glowdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowdesk/config"
	"glowdesk/cron"
	"glowdesk/database"
	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/gateway/availability"
	"glowdesk/gateway/calendar"
	"glowdesk/gateway/mpesa"
	"glowdesk/handlers"
	"glowdesk/middleware"
	"glowdesk/routes"
	"glowdesk/services/booking"
	"glowdesk/services/notification"
	"glowdesk/services/tasks"
	"glowdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitDraftCache()
	utils.InitDispatchCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	routes.RegisterSystemRoutes(router)

	// External collaborators.
	mpesaGateway := mpesa.NewDarajaClient()
	availabilityClient := availability.NewHTTPClient()
	calendarClient := calendar.NewHTTPClient()

	// Repositories.
	repo := bookingRepo.NewMongoBookingRepo()

	// Reminder queue client (asynq over Redis).
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})
	defer asynqClient.Close()

	alertService := &notification.FCMAlertService{}

	// Workflow services.
	resolver := &booking.AvailabilityResolver{Client: availabilityClient}
	draftManager := &booking.DraftManager{Store: &booking.RedisDraftStore{}}
	dispatcher := &booking.SideEffectDispatcher{
		Repo:      repo,
		Dedup:     &booking.RedisDedupStore{},
		Reminders: &tasks.AsynqReminderScheduler{Client: asynqClient},
		Calendar:  calendarClient,
		Alerts:    alertService,
	}
	machine := &booking.BookingStateMachine{
		Repo:     repo,
		Resolver: resolver,
		Dispatch: dispatcher,
	}
	initiator := &booking.PaymentInitiator{
		Gateway: mpesaGateway,
		Repo:    repo,
		Amount:  config.AppConfig.BookingDepositKES,
	}
	pollInterval := time.Duration(config.AppConfig.PollIntervalMS) * time.Millisecond
	poller := &booking.PaymentStatusPoller{
		Gateway:     mpesaGateway,
		Repo:        repo,
		Interval:    pollInterval,
		MaxAttempts: config.AppConfig.PollMaxAttempts,
	}
	flow := &booking.DefaultBookingFlow{
		Drafts:              draftManager,
		Initiator:           initiator,
		Poller:              poller,
		Machine:             machine,
		Repo:                repo,
		Alerts:              alertService,
		FailedPaymentPolicy: config.AppConfig.FailedPaymentPolicy,
		WatchBudget:         pollInterval*time.Duration(config.AppConfig.PollMaxAttempts) + 30*time.Second,
	}

	bookingHandler := handlers.NewBookingHandler(
		draftManager, flow, machine, resolver, dispatcher, repo, mpesaGateway)

	routes.RegisterAuthRoutes(router)
	routes.RegisterBookingRoutes(router, bookingHandler)

	// Reminder delivery worker.
	cron.InitReminderWorker(alertService)

	// Periodic dependency health snapshot.
	reminderQueueRedis := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})
	utils.StartHealthMonitor(
		map[string]*redis.Client{
			"drafts":    utils.GetDraftCacheClient(),
			"dispatch":  utils.GetDispatchCacheClient(),
			"reminders": reminderQueueRedis,
		},
		database.MongoClient,
	)

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

	// Stop payment watchers before the server so no state updates race the
	// teardown.
	flow.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

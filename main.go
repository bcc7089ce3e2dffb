package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotwise/config"
	"slotwise/database"
	bookingRepo "slotwise/database/repository/booking"
	businessRepo "slotwise/database/repository/business"
	paymentRepo "slotwise/database/repository/payment"
	subscriptionRepo "slotwise/database/repository/subscription"
	webhookEventRepo "slotwise/database/repository/webhookevent"
	"slotwise/gateway"
	"slotwise/handlers"
	"slotwise/middleware"
	"slotwise/routes"
	"slotwise/services/availability"
	"slotwise/services/booking"
	"slotwise/services/notification"
	"slotwise/services/payment"
	"slotwise/services/webhook"
	"slotwise/utils"
	"slotwise/worker"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.IsProduction())
	defer logger.Sync()

	mongoClient, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to mongo: %v", err)
	}
	db := mongoClient.Database(cfg.DatabaseName)

	cacheClient, err := utils.NewCacheClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to redis: %v", err)
	}

	// Repositories.
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to init booking repo: %v", err)
	}
	payments, err := paymentRepo.NewMongoPaymentRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to init payment repo: %v", err)
	}
	webhookEvents, err := webhookEventRepo.NewMongoWebhookEventRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to init webhook event repo: %v", err)
	}
	subscriptions, err := subscriptionRepo.NewMongoSubscriptionRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to init subscription repo: %v", err)
	}
	businesses, err := businessRepo.NewMongoBusinessRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to init business repo: %v", err)
	}

	// Task queue and notifier.
	queueOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queueClient := asynq.NewClient(queueOpts)
	defer queueClient.Close()
	notifier := &notification.AsynqNotifier{Client: queueClient, Logger: logger}

	// Services.
	stripeGateway := gateway.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout)

	bookingService := &booking.DefaultBookingService{
		Bookings:   bookings,
		Businesses: businesses,
		Notifier:   notifier,
		Policy: booking.Policy{
			MinLead:           cfg.MinLead,
			CancellationLimit: cfg.CancellationLimit,
			ReminderGrace:     cfg.ReminderGrace,
		},
		ReminderBefore: cfg.ReminderBefore,
		Logger:         logger,
	}

	materializer := &payment.Materializer{
		Payments: payments,
		Bookings: bookingService,
		Logger:   logger,
	}
	orchestrator := &payment.Orchestrator{
		Payments:     payments,
		Businesses:   businesses,
		Gateway:      stripeGateway,
		Materializer: materializer,
		Logger:       logger,
	}
	webhookProcessor := &webhook.Processor{
		Gateway:       stripeGateway,
		Events:        webhookEvents,
		Payments:      payments,
		Subscriptions: subscriptions,
		Materializer:  materializer,
		Logger:        logger,
	}
	availabilityService := &availability.Service{
		Bookings:   bookings,
		Businesses: businesses,
		Cache:      cacheClient,
		Logger:     logger,
	}

	// Background worker for notifications and reminders.
	w := &worker.Worker{
		Bookings: bookings,
		Sender:   &worker.LogSender{Logger: logger},
		Logger:   logger,
	}
	w.Start(queueOpts)
	defer w.Shutdown()

	monitor := &utils.HealthMonitor{}
	monitor.Start(mongoClient, cacheClient)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler(logger))
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.Register(router, &routes.HandlerBundle{
		Booking:      handlers.NewBookingHandler(bookingService, logger),
		Payment:      handlers.NewPaymentHandler(orchestrator, logger),
		Webhook:      handlers.NewWebhookHandler(webhookProcessor, logger),
		Availability: handlers.NewAvailabilityHandler(availabilityService),
		Health:       handlers.HealthHandler(monitor),
		JWTSecret:    cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
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
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

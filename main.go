package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeser-core/catalog"
	"homeser-core/config"
	"homeser-core/controllers"
	"homeser-core/database"
	"homeser-core/gateway"
	"homeser-core/kafka"
	"homeser-core/logger"
	"homeser-core/models"
	"homeser-core/realtime"
	"homeser-core/repository"
	"homeser-core/routes"
	"homeser-core/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Environment)
	log := logger.Log
	defer log.Sync()

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg, log,
		&models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.NotificationLog{})
	if err != nil {
		log.Fatal("Postgres connection failed", zap.Error(err))
	}

	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)

	catalogClient := catalog.NewClient(cfg.CatalogURL)
	gatewayClient := gateway.NewClient(cfg.Gateway)

	producer := kafka.NewProducer(cfg.KafkaBrokerList(), cfg.NotificationTopic)
	defer producer.Close()

	hub := realtime.NewHub(log)
	notifier := services.NewNotifier(hub, producer, notificationRepo, log)

	cartService := services.NewCartService(cartRepo, catalogClient, log)
	checkoutService := services.NewCheckoutService(
		cartRepo, orderRepo, paymentRepo, gatewayClient, notifier, log,
		cfg.Gateway.Currency, cfg.CheckoutIdemTTL,
	)
	paymentService := services.NewPaymentService(paymentRepo, orderRepo, gatewayClient, notifier, log)
	orderService := services.NewOrderService(orderRepo, notifier, log)
	notificationService := services.NewNotificationService(notificationRepo, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger())

	routes.Register(router, routes.Controllers{
		Cart:         controllers.NewCartController(cartService),
		Checkout:     controllers.NewCheckoutController(checkoutService),
		Order:        controllers.NewOrderController(orderService),
		Payment:      controllers.NewPaymentController(paymentService, log),
		Notification: controllers.NewNotificationController(notificationService),
		Realtime:     controllers.NewRealtimeController(hub, log),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HomeSer core engine running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Shutdown error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

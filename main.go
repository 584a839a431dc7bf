package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"papyrus/internal/handlers"
	"papyrus/internal/middleware"
	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/internal/services"
	"papyrus/pkg/rabbitmq"
	"papyrus/pkg/stripe"

	"github.com/spf13/viper"
)

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("JWT_SECRET", "dev_jwt_secret")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("BASE_URL", "http://localhost:3000")
	viper.SetDefault("CURRENCY", "usd")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")

	// --- Initialize Database ---
	// Postgres in production; a local SQLite file keeps development
	// dependency-free. TranslateError is required so the payment
	// idempotency guard can detect duplicate transaction IDs.
	var dialector gorm.Dialector
	if dsn := viper.GetString("DATABASE_URL"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		log.Println("DATABASE_URL not set, falling back to local SQLite database papyrus.db")
		dialector = sqlite.Open("papyrus.db")
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Inventory{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize RabbitMQ Client ---
	// The broker is optional: order events degrade to log lines without it.
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: failed to initialize RabbitMQ client, continuing without events: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close() // Ensure the connection is closed on exit
		}
	}
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}

	// --- Initialize Redis (optional product cache) ---
	var cache *redis.Client
	if redisURL := viper.GetString("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, continuing without product cache: %v", err)
		} else {
			cache = redis.NewClient(redisOpts)
		}
	}

	// --- Initialize Payment Gateway ---
	// Without a key the store runs in degraded mode: orders are recorded
	// but no payment session is offered.
	var gateway *stripe.Client
	if stripeKey := viper.GetString("STRIPE_SECRET_KEY"); stripeKey != "" {
		gateway = stripe.NewClient(stripeKey)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, payment sessions disabled")
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	inventoryRepo := repositories.NewGORMInventoryRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	productService := services.NewProductService(productRepo, inventoryRepo, cache)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, txManager, events)
	checkoutService := services.NewCheckoutService(
		userRepo, cartRepo, orderRepo, txManager, authService, gateway, events,
		services.CheckoutConfig{
			BaseURL:  viper.GetString("BASE_URL"),
			Currency: viper.GetString("CURRENCY"),
		},
	)
	webhookService := services.NewWebhookService(
		orderRepo, txManager, events, viper.GetString("STRIPE_WEBHOOK_SECRET"),
	)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes: auth, catalog reads, and the gateway webhook (which
	// authenticates via its signature header, not a JWT).
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	webhookHandler.RegisterRoutes(apiV1)

	// Authenticated buyer routes
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protectedRoutes)
	checkoutHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	// Admin routes
	adminRoutes := protectedRoutes.Group("", middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminRoutes)
	orderHandler.RegisterAdminRoutes(adminRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	// Downstream concerns (email, fulfilment) would consume these events in
	// their own services; this consumer just logs them.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event %s (Tag: %d): %s",
					msg.RoutingKey, msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

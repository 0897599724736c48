package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"recruit-ads-backend/handlers"
	"recruit-ads-backend/models"
	"recruit-ads-backend/services"
	"recruit-ads-backend/utils"
	"recruit-ads-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, reading environment variables directly")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logrus.Fatal("JWT_SECRET environment variable not set")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Fatal("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Member{},
		&models.Integration{},
		&models.Campaign{},
		&models.CampaignMetric{},
		&models.Job{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.DailyCampaignSpend{},
		&models.WebhookEvent{},
	); err != nil {
		logrus.WithError(err).Fatal("failed to migrate database")
	}

	if err := utils.InitR2(); err != nil {
		logrus.WithError(err).Warn("R2 client not initialized, uploads disabled")
	}

	var cache *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logrus.WithError(err).Fatal("invalid REDIS_URL")
		}
		cache = redis.NewClient(opts)
	} else {
		logrus.Warn("REDIS_URL not set, caching disabled")
	}

	stripeClient := services.NewStripeClient()
	resendClient := services.NewResendClient()

	authService := services.NewAuthService(db, jwtSecret)
	orgService := services.NewOrgService(db)
	campaignService := services.NewCampaignService(db, cache)
	jobService := services.NewJobService(db)
	syncService := services.NewSyncService(db, cache,
		services.NewMetaClient(), services.NewTikTokClient(), services.NewSheetsClient())
	walletService := services.NewWalletService(db, stripeClient, cache)
	webhookService := services.NewWebhookService(db, stripeClient, stripeClient)
	reconService := services.NewReconciliationService(db, stripeClient, resendClient, services.R2ReportUploader{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewInsightSyncWorker(db, syncService)
	go syncWorker.PollIntegrations(ctx, 6*time.Hour)

	services.StartSchedulers(reconService, jobService)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // creatives are images/short videos
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupOrganizationRoutes(app, db, jwtSecret, orgService)
	handlers.SetupCampaignRoutes(app, db, jwtSecret, campaignService)
	handlers.SetupJobRoutes(app, db, jwtSecret, jobService)
	handlers.SetupSyncRoutes(app, db, jwtSecret, syncService)
	handlers.SetupWalletRoutes(app, jwtSecret, walletService, webhookService, reconService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logrus.WithError(err).Error("server error")
		}
	}()
	logrus.WithField("port", port).Info("server running")

	<-ctx.Done()
	logrus.Info("shutting down server")
	_ = app.Shutdown()
}

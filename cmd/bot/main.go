package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/apex_bot/internal/ai"
	"github.com/mroshb/apex_bot/internal/config"
	"github.com/mroshb/apex_bot/internal/database"
	"github.com/mroshb/apex_bot/internal/handlers"
	"github.com/mroshb/apex_bot/internal/middleware"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/repositories"
	"github.com/mroshb/apex_bot/internal/services"
	"github.com/mroshb/apex_bot/pkg/logger"
	"github.com/mroshb/apex_bot/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting ride club bot...", "storage", cfg.StorageDriver)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	club := openClub(cfg)

	// The per-call context bounds latency; the client timeout is a backstop.
	aiHTTP := &http.Client{Timeout: cfg.GetAITimeout() + 5*time.Second}
	provider := ai.NewProvider(aiHTTP, cfg.GeminiAPIKey, cfg.GeminiModel)

	updateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute)
	defer updateLimiter.Stop()
	aiLimiter := middleware.NewRateLimiter(cfg.AIRateLimitPerUser, time.Hour)
	defer aiLimiter.Stop()

	handlerMgr := handlers.NewHandlerManager(cfg, club, provider, aiLimiter)

	// Initialize and start Telegram bot
	bot, err := telegram.InitBot(cfg, handlerMgr, updateLimiter)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	bot.Stop()
	logger.Info("Bot stopped")
}

// openClub builds the club state from the configured storage.
func openClub(cfg *config.Config) *services.ClubService {
	opts := services.Options{
		DefaultGroupCode: cfg.DefaultGroupCode,
		OwnerTelegramID:  cfg.SuperAdminTgID,
	}

	var club *services.ClubService
	if !cfg.UsePostgres() {
		club = services.NewClubService(opts)
		if cfg.SeedDemoData {
			club.Load(nil, models.DemoGroups(), models.DemoRides())
			logger.Info("Loaded demo data into memory")
		}
	} else {
		// Connect to database with TLS
		db, err := database.Connect(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", err)
		}

		// Run GORM auto-migration
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to run migrations", err)
		}

		store := repositories.NewStore(db)
		if cfg.SeedDemoData {
			if err := database.SeedDemoData(store); err != nil {
				logger.Warn("Failed to seed demo data", "error", err)
			}
		}

		users, groups, rides, err := store.LoadAll()
		if err != nil {
			logger.Fatal("Failed to load club state", err)
		}

		opts.Persister = store
		club = services.NewClubService(opts)
		club.Load(users, groups, rides)
		logger.Info("Loaded club state", "users", len(users), "groups", len(groups), "rides", len(rides))
	}

	// New riders are enrolled here, so it has to exist before the first /start.
	if _, err := club.EnsureDefaultGroup(); err != nil {
		logger.Fatal("Failed to create default group", err)
	}
	return club
}

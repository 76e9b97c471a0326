package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/apex_bot/internal/database"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Get database connection string
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("🚀 Migrating ride club tables...")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	// Indexes for the dashboard and ride list queries
	db.Exec("CREATE INDEX IF NOT EXISTS idx_rides_group_date ON rides(group_id, date)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ride_groups_private ON ride_groups(is_private)")

	fmt.Println("✅ Migration completed successfully!")
}

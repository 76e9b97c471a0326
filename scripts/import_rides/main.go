package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/apex_bot/internal/export"
	"github.com/mroshb/apex_bot/internal/repositories"
	"github.com/mroshb/apex_bot/internal/services"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/utils"
	flag "github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Imports a ride schedule workbook into a group, posting each ride as the
// group's admin.
//
// The bot must be stopped while this runs and started again afterwards. A
// running bot keeps its own copy of every rider in memory and would overwrite
// the admin's ride slots written here on their next action. Pass --bot-stopped
// to confirm.
func main() {
	botStopped := flag.Bool("bot-stopped", false, "confirm the bot process is not running")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: import_rides --bot-stopped <GROUP_CODE> <schedule.xlsx>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if !*botStopped {
		log.Fatal("stop the bot first, then rerun with --bot-stopped; a running bot overwrites imported ride slots")
	}
	code, path := utils.NormalizeCode(flag.Arg(0)), flag.Arg(1)

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"), sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	store := repositories.NewStore(db)
	group, err := store.Groups.GetGroupByCode(code)
	if err != nil {
		log.Fatalf("group %s: %v", code, err)
	}

	users, groups, rides, err := store.LoadAll()
	if err != nil {
		log.Fatal(err)
	}
	club := services.NewClubService(services.Options{Persister: store})
	club.Load(users, groups, rides)

	admin, err := club.User(group.AdminID)
	if err != nil {
		log.Fatalf("admin of %s has never used the bot, cannot post rides as them", group.Name)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	inputs, rowErrs, err := export.ParseRideSchedule(f)
	if err != nil {
		log.Fatal(err)
	}
	for _, re := range rowErrs {
		fmt.Printf("Skipping %v\n", re)
	}

	totalImported := 0
	for _, in := range inputs {
		ride, err := club.CreateRide(admin.ID, group.ID, in)
		if err != nil {
			fmt.Printf("Error creating ride %q: %s\n", in.Title, errors.MessageOf(err))
			continue
		}
		fmt.Printf("Created %s %s (%s)\n", ride.ID, ride.Title, ride.Date)
		totalImported++
	}

	fmt.Printf("Successfully imported %d rides into %s. Start the bot again to serve them.\n", totalImported, group.Name)
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mroshb/apex_bot/internal/export"
	"github.com/xuri/excelize/v2"
)

// Dry run for import_rides: shows the workbook layout and which rows would
// be imported, without touching a database.
func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: inspect_schedule <schedule.xlsx>")
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// Get all the sheet names
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		log.Fatal("no sheets found")
	}

	fmt.Printf("Sheets: %v\n", sheets)

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		log.Fatal(err)
	}
	for i, row := range rows {
		if i > 5 {
			break
		}
		fmt.Printf("Row %d: %v\n", i+1, row)
	}

	in, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer in.Close()

	inputs, rowErrs, err := export.ParseRideSchedule(in)
	if err != nil {
		log.Fatal(err)
	}
	for _, ride := range inputs {
		fmt.Printf("OK   %s | %s %s | %s | %s\n", ride.Title, ride.Date, ride.Time, ride.Level, ride.Terrain)
	}
	for _, re := range rowErrs {
		fmt.Printf("FAIL %v\n", re)
	}
	fmt.Printf("%d importable, %d rejected\n", len(inputs), len(rowErrs))
}

// Package export writes a group's ride schedule and rosters to an Excel
// workbook and reads ride schedules back from one.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	RidesSheet  = "Rides"
	RidersSheet = "Riders"
)

const (
	colTitle       = "Title"
	colDate        = "Date"
	colKSU         = "KSU"
	colDistance    = "Distance (mi)"
	colElevation   = "Elevation (ft)"
	colLevel       = "Level"
	colTerrain     = "Terrain"
	colMaxRiders   = "Max Riders"
	colLeader      = "Leader"
	colMarshall    = "Marshall"
	colTail        = "Tail"
	colDescription = "Description"
	colTips        = "Tips"
)

var rideColumns = []string{
	"Ride ID", colTitle, colDate, colKSU, colDistance, colElevation, colLevel, colTerrain,
	"Min XP", colMaxRiders, "Riders", colLeader, colMarshall, colTail, colDescription, colTips,
}

var riderColumns = []string{"Ride ID", "Ride", "Rider", "XP"}

// FileName returns a unique workbook name for a group export.
func FileName(group models.Group) string {
	return fmt.Sprintf("rides-%s-%s.xlsx", strings.ToLower(group.Code), uuid.NewString()[:8])
}

// WriteGroupRides writes rides and the registered riders of each
// ride as an xlsx workbook.
func WriteGroupRides(w io.Writer, rides []models.Ride, rosters map[string][]models.User) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RidesSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare workbook")
	}
	if _, err := f.NewSheet(RidersSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare workbook")
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare workbook")
	}

	rideRows := [][]interface{}{toRow(rideColumns)}
	riderRows := [][]interface{}{toRow(riderColumns)}
	for _, r := range rides {
		rideRows = append(rideRows, []interface{}{
			r.ID, r.Title, r.Date, r.Time, r.Distance, r.Elevation, string(r.Level), string(r.Terrain),
			r.MinPoints, r.MaxRiders, r.CurrentRiders, r.LeaderName, r.MarshallName, r.TailName,
			r.Description, r.Tips,
		})
		for _, u := range rosters[r.ID] {
			riderRows = append(riderRows, []interface{}{r.ID, r.Title, u.Name, u.Points})
		}
	}

	if err := writeSheet(f, RidesSheet, rideRows, header); err != nil {
		return err
	}
	if err := writeSheet(f, RidersSheet, riderRows, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to style workbook")
	}
	last, _ := excelize.ColumnNumberToName(len(rows[0]))
	return f.SetColWidth(sheet, "A", last, 16)
}

func toRow(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}


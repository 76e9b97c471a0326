package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/internal/security"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// Uploaded workbooks are decompressed in memory; anything larger than this
// once unzipped is refused.
var (
	maxUnzipBytes    int64 = 16 << 20
	maxUnzipXMLBytes int64 = 8 << 20
)

// RowError reports a schedule row that could not be read. Row is 1-based as
// shown in spreadsheet software.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ParseRideSchedule reads ride inputs from the Rides sheet (or the first
// sheet) of an xlsx workbook. Columns are matched by header name, so an
// exported workbook can be fed back in. Text cells are sanitised like
// wizard input. Invalid rows are reported and skipped.
func ParseRideSchedule(r io.Reader) ([]rules.RideInput, []RowError, error) {
	f, err := excelize.OpenReader(r, excelize.Options{
		UnzipSizeLimit:    maxUnzipBytes,
		UnzipXMLSizeLimit: maxUnzipXMLBytes,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeValidation, "not a valid xlsx workbook")
	}
	defer f.Close()

	sheet := RidesSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, errors.New(errors.ErrCodeValidation, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read sheet")
	}
	if len(rows) == 0 {
		return nil, nil, errors.New(errors.ErrCodeValidation, "sheet is empty")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTitle, colDate, colKSU, colLevel, colTerrain, colMaxRiders, colLeader} {
		if _, ok := cols[strings.ToLower(required)]; !ok {
			return nil, nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("missing column %q", required))
		}
	}

	var inputs []rules.RideInput
	var rowErrs []RowError
	for i, row := range rows[1:] {
		get := func(col string) string {
			idx, ok := cols[strings.ToLower(col)]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if get(colTitle) == "" && get(colDate) == "" {
			continue
		}

		in, err := parseRow(get)
		if err == nil {
			err = in.Validate()
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 2, Err: err})
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, rowErrs, nil
}

func parseRow(get func(string) string) (rules.RideInput, error) {
	level, err := models.ParseLevel(get(colLevel))
	if err != nil {
		return rules.RideInput{}, err
	}
	terrain, err := models.ParseTerrain(get(colTerrain))
	if err != nil {
		return rules.RideInput{}, err
	}
	maxRiders, err := strconv.Atoi(utils.NormalizeNumber(get(colMaxRiders)))
	if err != nil {
		return rules.RideInput{}, errors.Wrap(err, errors.ErrCodeValidation, "max riders is not a number")
	}

	var distance float64
	if s := get(colDistance); s != "" {
		if distance, err = strconv.ParseFloat(utils.NormalizeNumber(s), 64); err != nil {
			return rules.RideInput{}, errors.Wrap(err, errors.ErrCodeValidation, "distance is not a number")
		}
	}
	var elevation int
	if s := get(colElevation); s != "" {
		if elevation, err = strconv.Atoi(utils.NormalizeNumber(s)); err != nil {
			return rules.RideInput{}, errors.Wrap(err, errors.ErrCodeValidation, "elevation is not a whole number")
		}
	}

	title, err := security.CleanTitle(get(colTitle))
	if err != nil {
		return rules.RideInput{}, err
	}
	leader, err := security.CleanName(get(colLeader))
	if err != nil {
		return rules.RideInput{}, errors.Wrap(err, errors.ErrCodeValidation, "leader name is required")
	}
	// Optional names that sanitise to nothing are dropped.
	marshall, _ := security.CleanName(get(colMarshall))
	tail, _ := security.CleanName(get(colTail))

	return rules.RideInput{
		Title:        title,
		Description:  security.CleanDescription(get(colDescription)),
		Tips:         security.CleanDescription(get(colTips)),
		Date:         get(colDate),
		Time:         get(colKSU),
		Distance:     distance,
		Elevation:    elevation,
		Level:        level,
		Terrain:      terrain,
		MaxRiders:    maxRiders,
		LeaderName:   leader,
		MarshallName: marshall,
		TailName:     tail,
	}, nil
}

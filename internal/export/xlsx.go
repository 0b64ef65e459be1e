// Package export turns the medication list into workbooks, markdown
// tables and diffable listings, and reads medications back from files for
// import.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jeanpaul/medremind/internal/medication"
)

// Sheet is the worksheet name used for exports.
const Sheet = "Medications"

var header = []string{"ID", "Name", "Dosage", "Remaining", "Threshold", "Times", "Low"}

// WriteXLSX writes meds as a single-sheet workbook.
func WriteXLSX(w io.Writer, meds []medication.Medication) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return err
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(Sheet, "A1", &row); err != nil {
		return err
	}
	for i, m := range meds {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{m.ID, m.Name, m.Dosage, m.RemainingDoses, m.RefillThreshold, m.TimesString(), yesNo(m.Low())}
		if err := f.SetSheetRow(Sheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// ReadXLSX reads medications from a workbook previously written by
// WriteXLSX. Ids are kept as found; the importer discards them.
func ReadXLSX(path string) ([]medication.Medication, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := Sheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var meds []medication.Medication
	for n, r := range rows[1:] {
		line := n + 2
		for len(r) < len(header) {
			r = append(r, "")
		}
		m := medication.Medication{Name: r[1], Dosage: r[2]}
		if m.ID, err = cellInt(r[0]); err != nil {
			return nil, fmt.Errorf("%s row %d: id: %w", sheet, line, err)
		}
		if m.RemainingDoses, err = cellInt(r[3]); err != nil {
			return nil, fmt.Errorf("%s row %d: remaining: %w", sheet, line, err)
		}
		if m.RefillThreshold, err = cellInt(r[4]); err != nil {
			return nil, fmt.Errorf("%s row %d: threshold: %w", sheet, line, err)
		}
		if m.ScheduledTimes, err = medication.ParseSchedule(r[5]); err != nil {
			return nil, fmt.Errorf("%s row %d: times: %w", sheet, line, err)
		}
		meds = append(meds, m)
	}
	return meds, nil
}

func cellInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Ranking"

type xlsxRenderer struct{}

func (xlsxRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (xlsxRenderer) Extension() string { return "xlsx" }

// Render writes a single sheet with the same columns as the CSV export.
// Numbers stay numeric cells so spreadsheets can sort them.
func (xlsxRenderer) Render(w io.Writer, snap Snapshot, style Style) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	l := style.Locale.Labels
	header := []interface{}{l.Position, l.Name, l.Age, l.School, l.Score, l.Level, l.Date}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range snap.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Rank, r.PlayerName, r.PlayerAge, r.PlayerSchool, r.Score, r.Level, style.Date(r.SubmittedAt)}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Rank, err)
		}
	}
	return f.Write(w)
}

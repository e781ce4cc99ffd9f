// Package excel writes the analysis tables to an XLSX workbook with excelize.
package excel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// FileName is the workbook output file.
const FileName = "covid_summary.xlsx"

// Sheet names.
const (
	SheetLatest      = "Latest"
	SheetVaccination = "Vaccination"
	SheetSeries      = "Series"
)

var (
	latestHeader      = []any{"Location", "ISO Code", "Total Cases", "Total Deaths", "Death Rate (%)"}
	vaccinationHeader = []any{"Location", "People Fully Vaccinated per Hundred"}
)

// Workbook writes covid_summary.xlsx. It implements pipeline.Reporter.
type Workbook struct {
	dir    string
	logger *slog.Logger
}

// NewWorkbook creates a Workbook writing into dir.
func NewWorkbook(dir string, logger *slog.Logger) *Workbook {
	return &Workbook{dir: dir, logger: logger}
}

// Name identifies the reporter in logs and metrics.
func (w *Workbook) Name() string { return "workbook" }

// Report builds the workbook in memory and saves it as FileName.
func (w *Workbook) Report(ctx context.Context, a *domain.Analysis) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetLatest); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeLatest(f, a, header); err != nil {
		return err
	}

	if a.VaccinationAvailable {
		if err := writeVaccination(f, a, header); err != nil {
			return err
		}
	} else {
		w.logger.Debug("vaccination sheet omitted, column not present")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeSeries(f, a, header); err != nil {
		return err
	}

	path := filepath.Join(w.dir, FileName)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("workbook written", "path", path)
	return nil
}

func writeLatest(f *excelize.File, a *domain.Analysis, style int) error {
	rows := make([][]any, len(a.Latest))
	for i, r := range a.Latest {
		rows[i] = []any{r.Location, r.ISOCode, cell(r.TotalCases), cell(r.TotalDeaths), cell(r.DeathRate)}
	}
	if err := writeTable(f, SheetLatest, latestHeader, rows, style); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	last := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$C$1", SheetLatest),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", SheetLatest, last),
			Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", SheetLatest, last),
		}},
		Title: []excelize.RichTextRun{{Text: "Total COVID-19 Cases by Country (Latest Data)"}},
		Legend: excelize.ChartLegend{
			Position: "none",
		},
	}
	if err := f.AddChart(SheetLatest, "G2", chart); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}

func writeVaccination(f *excelize.File, a *domain.Analysis, style int) error {
	if _, err := f.NewSheet(SheetVaccination); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetVaccination, err)
	}
	rows := make([][]any, len(a.Vaccination))
	for i, r := range a.Vaccination {
		rows[i] = []any{r.Location, cell(r.PeopleFullyVaccinatedPerHundred)}
	}
	return writeTable(f, SheetVaccination, vaccinationHeader, rows, style)
}

// writeSeries lists every selected (location, date) row next to its rolling
// mean of new cases.
func writeSeries(f *excelize.File, a *domain.Analysis, style int) error {
	if _, err := f.NewSheet(SheetSeries); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetSeries, err)
	}
	header := []any{
		"Location", "Date", "Total Cases", "New Cases", "Total Deaths", "New Deaths",
		fmt.Sprintf("New Cases (%d-day Avg)", a.RollingWindow),
	}
	if a.VaccinationAvailable {
		header = append(header, "People Fully Vaccinated per Hundred")
	}

	var rows [][]any
	for i, s := range a.Series {
		var rolling []domain.RollingPoint
		if i < len(a.Rolling) && a.Rolling[i].Location == s.Location {
			rolling = a.Rolling[i].Points
		}
		for j, r := range s.Records {
			var mean *float64
			if j < len(rolling) {
				mean = rolling[j].Mean
			}
			row := []any{
				r.Location, r.Date.Format(domain.DateLayout),
				cell(r.TotalCases), cell(r.NewCases), cell(r.TotalDeaths), cell(r.NewDeaths),
				cell(mean),
			}
			if a.VaccinationAvailable {
				row = append(row, cell(r.PeopleFullyVaccinatedPerHundred))
			}
			rows = append(rows, row)
		}
	}
	return writeTable(f, SheetSeries, header, rows, style)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cell leaves undefined values as blank cells.
func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

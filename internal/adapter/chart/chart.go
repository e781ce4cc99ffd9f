// Package chart renders the tracker's static PNG charts with gonum/plot.
package chart

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Output file names.
const (
	FileTotalCases           = "total_cases_over_time.png"
	FileTotalDeaths          = "total_deaths_over_time.png"
	FileRollingNewCases      = "new_cases_rolling_avg.png"
	FileCasesByCountry       = "total_cases_by_country.png"
	FileVaccinationProgress  = "vaccination_progress.png"
	FileVaccinationByCountry = "vaccination_percentage_by_country.png"
)

const (
	width  = 14 * vg.Inch
	height = 8 * vg.Inch
)

// builder produces one chart from an analysis.
type builder struct {
	file  string
	build func(a *domain.Analysis) (*plot.Plot, error)
}

// CaseCharts writes the case and death charts. It implements pipeline.Reporter.
type CaseCharts struct {
	dir string
}

// NewCaseCharts creates a CaseCharts writing into dir.
func NewCaseCharts(dir string) *CaseCharts {
	return &CaseCharts{dir: dir}
}

// Name identifies the reporter in logs and metrics.
func (c *CaseCharts) Name() string { return "case-charts" }

// Report writes the four case and death charts.
func (c *CaseCharts) Report(ctx context.Context, a *domain.Analysis) error {
	return render(ctx, c.dir, a, []builder{
		{FileTotalCases, func(a *domain.Analysis) (*plot.Plot, error) {
			return timeSeries("Total COVID-19 Cases Over Time", "Total Cases", a.Series, totalCases, true)
		}},
		{FileTotalDeaths, func(a *domain.Analysis) (*plot.Plot, error) {
			return timeSeries("Total COVID-19 Deaths Over Time", "Total Deaths", a.Series, totalDeaths, true)
		}},
		{FileRollingNewCases, func(a *domain.Analysis) (*plot.Plot, error) {
			title := fmt.Sprintf("Daily New COVID-19 Cases (%d-day Rolling Average)", a.RollingWindow)
			return rollingSeries(title, fmt.Sprintf("New Cases (%d-day Avg)", a.RollingWindow), a.Rolling)
		}},
		{FileCasesByCountry, func(a *domain.Analysis) (*plot.Plot, error) {
			return bars("Total COVID-19 Cases by Country (Latest Data)", "Total Cases", a.Latest, totalCases)
		}},
	})
}

// VaccinationCharts writes the vaccination charts. It implements pipeline.Reporter.
type VaccinationCharts struct {
	dir string
}

// NewVaccinationCharts creates a VaccinationCharts writing into dir.
func NewVaccinationCharts(dir string) *VaccinationCharts {
	return &VaccinationCharts{dir: dir}
}

// Name identifies the reporter in logs and metrics.
func (c *VaccinationCharts) Name() string { return "vaccination-charts" }

// Report writes the two vaccination charts, or is skipped when the
// vaccination column is absent.
func (c *VaccinationCharts) Report(ctx context.Context, a *domain.Analysis) error {
	if !a.VaccinationAvailable {
		return fmt.Errorf("vaccination charts: %w", domain.ErrFeatureUnavailable)
	}
	return render(ctx, c.dir, a, []builder{
		{FileVaccinationProgress, func(a *domain.Analysis) (*plot.Plot, error) {
			return timeSeries("Percentage of Population Fully Vaccinated Against COVID-19", "Percentage of Population", a.Series, vaccinated, false)
		}},
		{FileVaccinationByCountry, func(a *domain.Analysis) (*plot.Plot, error) {
			return bars("Percentage of Population Fully Vaccinated (Latest Data)", "Percentage of Population", a.Vaccination, vaccinated)
		}},
	})
}

func render(ctx context.Context, dir string, a *domain.Analysis, builders []builder) error {
	for _, b := range builders {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := b.build(a)
		if err != nil {
			return fmt.Errorf("build %s: %w", b.file, err)
		}
		if err := p.Save(width, height, filepath.Join(dir, b.file)); err != nil {
			return fmt.Errorf("save %s: %w", b.file, err)
		}
	}
	return nil
}

func totalCases(r domain.Record) *float64  { return r.TotalCases }
func totalDeaths(r domain.Record) *float64 { return r.TotalDeaths }
func vaccinated(r domain.Record) *float64  { return r.PeopleFullyVaccinatedPerHundred }

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true
	return p
}

// timeSeries draws one line per series. On a log axis non-positive values
// are left out since they have no logarithm.
func timeSeries(title, yLabel string, series []domain.Series, value func(domain.Record) *float64, logY bool) (*plot.Plot, error) {
	p := newPlot(title, yLabel)
	p.X.Label.Text = "Date"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	plotted := 0
	for i, s := range series {
		xys := make(plotter.XYs, 0, len(s.Records))
		for _, r := range s.Records {
			v := value(r)
			if v == nil || (logY && *v <= 0) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(r.Date.Unix()), Y: *v})
		}
		if err := addLine(p, s.Location, xys, i); err != nil {
			return nil, err
		}
		if len(xys) > 0 {
			plotted++
		}
	}

	if logY && plotted > 0 {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p, nil
}

func rollingSeries(title, yLabel string, series []domain.RollingSeries) (*plot.Plot, error) {
	p := newPlot(title, yLabel)
	p.X.Label.Text = "Date"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	for i, s := range series {
		xys := make(plotter.XYs, 0, len(s.Points))
		for _, pt := range s.Points {
			if pt.Mean == nil {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(pt.Date.Unix()), Y: *pt.Mean})
		}
		if err := addLine(p, s.Location, xys, i); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func addLine(p *plot.Plot, name string, xys plotter.XYs, i int) error {
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("line %s: %w", name, err)
	}
	line.Color = plotutil.Color(i)
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// bars draws one bar per record, in record order. Records without a value
// get no bar.
func bars(title, yLabel string, records []domain.Record, value func(domain.Record) *float64) (*plot.Plot, error) {
	p := newPlot(title, yLabel)
	p.X.Label.Text = "Country"

	var names []string
	var values plotter.Values
	for _, r := range records {
		v := value(r)
		if v == nil {
			continue
		}
		names = append(names, r.Location)
		values = append(values, *v)
	}
	if len(values) == 0 {
		return p, nil
	}

	b, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	b.Color = plotutil.Color(0)
	b.LineStyle.Width = vg.Length(0)
	p.Add(b)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

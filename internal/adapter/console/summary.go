package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const rule = "=================================================="

// Summary prints the textual report. It implements pipeline.Reporter.
type Summary struct {
	w io.Writer
}

// NewSummary creates a Summary writing to w.
func NewSummary(w io.Writer) *Summary {
	return &Summary{w: w}
}

// Name identifies the reporter in logs and metrics.
func (s *Summary) Name() string { return "console" }

// Report writes the exploration, cleaning, snapshot and vaccination sections.
func (s *Summary) Report(_ context.Context, a *domain.Analysis) error {
	p := &printer{w: s.w}

	p.section("DATA EXPLORATION")
	p.printf("Rows: %d, columns: %d\n", a.Profile.Rows, len(a.Profile.Columns))
	p.printf("Total unique locations: %d\n", a.Profile.UniqueLocations)
	p.printf("Sample locations: %s\n", strings.Join(a.Profile.SampleLocations, ", "))
	p.printf("\nMissing values per column:\n")
	p.table(missingRows(a.Profile))

	p.section("DATA CLEANING")
	p.printf("Removed aggregates: %s\n", strings.Join(domain.Aggregates, ", "))
	p.printf("Remaining rows after removing aggregates: %d\n", a.CountryRows)
	p.printf("Selected countries: %s\n", strings.Join(domain.CountriesOfInterest, ", "))
	p.printf("Selected rows: %d\n", a.Selected.Len())
	for _, m := range domain.KeyMetrics {
		p.printf("Filled %d missing values in '%s' with 0\n", a.Filled[m], m)
	}

	p.section("LATEST STATISTICS")
	if a.LatestDate.IsZero() {
		p.printf("No records for the selected countries\n")
	} else {
		p.printf("Latest date in the dataset: %s\n\n", a.LatestDate.Format(domain.DateLayout))
		p.table(latestRows(a.Latest))
	}

	p.section("VACCINATION PROGRESS")
	if !a.VaccinationAvailable {
		p.printf("Vaccination data not available in the dataset\n")
	} else {
		p.table(vaccinationRows(a.Vaccination))
	}

	return p.err
}

// printer accumulates the first write error so sections can be written
// without checking each call.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) section(title string) {
	p.printf("\n%s\n%s\n", title, rule)
}

func (p *printer) table(rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight|tabwriter.Debug)
	for _, row := range rows {
		if _, p.err = fmt.Fprintln(tw, strings.Join(row, "\t")+"\t"); p.err != nil {
			return
		}
	}
	p.err = tw.Flush()
}

// missingRows lists missing counts in CSV column order.
func missingRows(p domain.Profile) [][]string {
	rows := [][]string{{"column", "missing"}}
	for _, col := range p.Columns {
		n, ok := p.Missing[col]
		if !ok {
			continue
		}
		rows = append(rows, []string{col, fmt.Sprintf("%d", n)})
	}
	return rows
}

func latestRows(records []domain.Record) [][]string {
	rows := [][]string{{"location", "total_cases", "total_deaths", "death_rate"}}
	for _, r := range records {
		rows = append(rows, []string{
			r.Location,
			formatNumber(r.TotalCases, 0),
			formatNumber(r.TotalDeaths, 0),
			formatNumber(r.DeathRate, 2),
		})
	}
	return rows
}

func vaccinationRows(records []domain.Record) [][]string {
	rows := [][]string{{"location", "people_fully_vaccinated_per_hundred"}}
	for _, r := range records {
		rows = append(rows, []string{r.Location, formatNumber(r.PeopleFullyVaccinatedPerHundred, 2)})
	}
	return rows
}

// formatNumber renders nil as NaN, the way the dataframe printout shows gaps.
func formatNumber(p *float64, precision int) string {
	if p == nil {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", precision, *p)
}

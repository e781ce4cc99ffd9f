// Command validate checks an OWID-format CSV for the integrity the tracker
// relies on: required columns, parseable dates, unique (location, date)
// pairs, and the invariants the cleaning stage must establish.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/owid_covid_sample.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/owid"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to an OWID-format COVID-19 CSV file")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, csvPath string) int {
	fmt.Fprintln(out, "=== COVID Data Integrity Validation ===")
	fmt.Fprintln(out)

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open CSV: %v\n", err)
		return 1
	}
	defer f.Close()

	raw, err := owid.Decode(f)
	if err != nil {
		fmt.Fprintf(out, "FATAL: decode CSV: %v\n", err)
		return 1
	}

	parsed := &phase{name: "Date parsing"}
	dated, err := domain.ParseDates(raw)
	if err != nil {
		parsed.errorf("%v", err)
	}

	phases := []*phase{validateSchema(raw), parsed}
	if parsed.passed() {
		phases = append(phases, validateUniqueness(dated), validateCleaning(raw))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d rows, %d locations\n", raw.Len(), len(raw.Locations()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// validateSchema flags empty location labels. Missing optional columns are
// not errors; the reporters that need them are skipped.
func validateSchema(ds domain.Dataset) *phase {
	p := &phase{name: "Schema"}
	for i, r := range ds.Records {
		if r.Location == "" {
			p.errorf("row %d: empty location", i+1)
		}
	}
	if ds.Len() == 0 {
		p.errorf("dataset has no rows")
	}
	return p
}

func validateUniqueness(ds domain.Dataset) *phase {
	p := &phase{name: "Unique (location, date)"}
	type key struct{ location, date string }
	seen := make(map[key]int, ds.Len())
	for i, r := range ds.Records {
		k := key{r.Location, r.Date.Format(domain.DateLayout)}
		if first, ok := seen[k]; ok {
			p.errorf("row %d duplicates row %d: %s on %s", i+1, first, k.location, k.date)
			continue
		}
		seen[k] = i + 1
	}
	return p
}

// validateCleaning runs the cleaning stage and checks its guarantees hold.
func validateCleaning(raw domain.Dataset) *phase {
	p := &phase{name: "Cleaning invariants"}
	cleaned, err := domain.Clean(raw)
	if err != nil {
		p.errorf("clean: %v", err)
		return p
	}

	for _, r := range cleaned.Countries.Records {
		if slices.Contains(domain.Aggregates, r.Location) {
			p.errorf("aggregate %q survived cleaning", r.Location)
		}
	}
	for _, r := range cleaned.Selected.Records {
		if !slices.Contains(domain.CountriesOfInterest, r.Location) {
			p.errorf("%q is not a country of interest", r.Location)
		}
		if r.TotalCases == nil || r.NewCases == nil || r.TotalDeaths == nil || r.NewDeaths == nil {
			p.errorf("%s on %s: key metric left missing", r.Location, r.RawDate)
		}
		if (r.DeathRate == nil) != (domain.Value(r.TotalCases) == 0) {
			p.errorf("%s on %s: death rate defined=%t with total_cases=%v",
				r.Location, r.RawDate, r.DeathRate != nil, domain.Value(r.TotalCases))
		}
	}
	return p
}

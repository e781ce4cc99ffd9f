package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// Aggregates are OWID continent and region rows that would double count
	// country totals.
	Aggregates = []string{
		"World", "Europe", "North America", "South America",
		"Asia", "Africa", "Oceania", "European Union",
	}

	// CountriesOfInterest is the fixed allow-list the reports cover, in
	// legend order.
	CountriesOfInterest = []string{
		"United States", "India", "Brazil", "United Kingdom",
		"Russia", "France", "Germany", "South Africa",
		"China", "Kenya", "Japan",
	}

	// KeyMetrics are the columns FillMissing guarantees to be non-nil.
	KeyMetrics = []string{ColTotalCases, ColNewCases, ColTotalDeaths, ColNewDeaths}
)

// Cleaned is the output of Clean.
type Cleaned struct {
	// Countries is the dataset with aggregate rows removed.
	Countries Dataset
	// Selected holds only CountriesOfInterest, null-filled and with death rates.
	Selected Dataset
	// Filled counts the values replaced with zero, keyed by metric column.
	Filled map[string]int
}

// Clean runs the full cleaning sequence over a freshly loaded dataset.
func Clean(raw Dataset) (Cleaned, error) {
	parsed, err := ParseDates(raw)
	if err != nil {
		return Cleaned{}, err
	}

	countries := DropLocations(parsed, Aggregates)
	selected, filled := FillMissing(KeepLocations(countries, CountriesOfInterest))

	return Cleaned{
		Countries: countries,
		Selected:  AddDeathRate(selected),
		Filled:    filled,
	}, nil
}

// ParseDates fills Record.Date from Record.RawDate. Records that already carry
// a date and no raw string are kept as-is.
func ParseDates(ds Dataset) (Dataset, error) {
	out := make([]Record, len(ds.Records))
	for i, r := range ds.Records {
		raw := strings.TrimSpace(r.RawDate)
		if raw == "" && !r.Date.IsZero() {
			out[i] = r
			continue
		}
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return Dataset{}, fmt.Errorf("parse date %q for %s (row %d): %w", r.RawDate, r.Location, i+1, err)
		}
		r.Date = t
		out[i] = r
	}
	return ds.withRecords(out), nil
}

// DropLocations removes records whose location is in labels.
func DropLocations(ds Dataset, labels []string) Dataset {
	drop := toSet(labels)
	return filter(ds, func(r Record) bool {
		_, ok := drop[r.Location]
		return !ok
	})
}

// KeepLocations retains only records whose location is in allow.
func KeepLocations(ds Dataset, allow []string) Dataset {
	keep := toSet(allow)
	return filter(ds, func(r Record) bool {
		_, ok := keep[r.Location]
		return ok
	})
}

// FillMissing replaces nil key metrics with 0 and reports how many values were
// filled per metric column.
func FillMissing(ds Dataset) (Dataset, map[string]int) {
	filled := make(map[string]int, len(KeyMetrics))
	for _, m := range KeyMetrics {
		filled[m] = 0
	}

	out := make([]Record, len(ds.Records))
	for i, r := range ds.Records {
		r.TotalCases = fillZero(r.TotalCases, filled, ColTotalCases)
		r.NewCases = fillZero(r.NewCases, filled, ColNewCases)
		r.TotalDeaths = fillZero(r.TotalDeaths, filled, ColTotalDeaths)
		r.NewDeaths = fillZero(r.NewDeaths, filled, ColNewDeaths)
		out[i] = r
	}
	return ds.withRecords(out), filled
}

// AddDeathRate sets DeathRate on every record.
func AddDeathRate(ds Dataset) Dataset {
	out := make([]Record, len(ds.Records))
	for i, r := range ds.Records {
		r.DeathRate = DeathRate(Value(r.TotalDeaths), Value(r.TotalCases))
		out[i] = r
	}
	return ds.withRecords(out)
}

// DeathRate returns totalDeaths/totalCases*100 rounded to two decimals, or nil
// when totalCases is zero.
func DeathRate(totalDeaths, totalCases float64) *float64 {
	if totalCases == 0 {
		return nil
	}
	rate := totalDeaths / totalCases * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil
	}
	return Float(round2(rate))
}

// round2 rounds half-to-even at two decimals.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func fillZero(p *float64, filled map[string]int, metric string) *float64 {
	if p != nil {
		return p
	}
	filled[metric]++
	return Float(0)
}

func filter(ds Dataset, keep func(Record) bool) Dataset {
	out := make([]Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return ds.withRecords(out)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

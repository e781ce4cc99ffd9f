package domain

import (
	"slices"
	"sort"
	"time"
)

// DefaultRollingWindow is the number of samples averaged for new cases.
const DefaultRollingWindow = 7

// Series is the date-ordered records of one location.
type Series struct {
	Location string
	Records  []Record
}

// RollingPoint is one sample of a rolling average. Mean is nil until the
// window has filled.
type RollingPoint struct {
	Date time.Time
	Mean *float64
}

// RollingSeries is the rolling new-case average of one location.
type RollingSeries struct {
	Location string
	Points   []RollingPoint
}

// MapPoint is one country on the choropleth map.
type MapPoint struct {
	ISOCode              string   `json:"iso_code"`
	Location             string   `json:"location"`
	TotalCasesPerMillion *float64 `json:"total_cases_per_million"`
}

// LatestDate returns the maximum date in the dataset, or false when empty.
func LatestDate(ds Dataset) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, r := range ds.Records {
		if !found || r.Date.After(latest) {
			latest = r.Date
			found = true
		}
	}
	return latest, found
}

// RecordsOn returns the records dated on date, at most one per location
// (the first occurrence wins).
func RecordsOn(ds Dataset, date time.Time) []Record {
	seen := make(map[string]struct{})
	var out []Record
	for _, r := range ds.Records {
		if !r.Date.Equal(date) {
			continue
		}
		if _, ok := seen[r.Location]; ok {
			continue
		}
		seen[r.Location] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortByTotalCases returns a copy of records ordered by total cases, highest first.
func SortByTotalCases(records []Record) []Record {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return Value(out[i].TotalCases) > Value(out[j].TotalCases)
	})
	return out
}

// SortByVaccination returns a copy of records ordered by the fully vaccinated
// percentage, highest first. Records without a value sort last.
func SortByVaccination(records []Record) []Record {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PeopleFullyVaccinatedPerHundred, out[j].PeopleFullyVaccinatedPerHundred
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return out
}

// SeriesByLocation groups records per location in the given order. Locations
// without records yield an empty series.
func SeriesByLocation(ds Dataset, locations []string) []Series {
	grouped := make(map[string][]Record, len(locations))
	for _, r := range ds.Records {
		grouped[r.Location] = append(grouped[r.Location], r)
	}

	out := make([]Series, 0, len(locations))
	for _, loc := range locations {
		records := grouped[loc]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Date.Before(records[j].Date)
		})
		out = append(out, Series{Location: loc, Records: records})
	}
	return out
}

// RollingMean computes a trailing mean over window samples. The result has the
// same length as values; the first window-1 entries are nil.
func RollingMean(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = Float(sum / float64(window))
	}
	return out
}

// RollingNewCases applies RollingMean to new_cases of every series independently.
func RollingNewCases(series []Series, window int) []RollingSeries {
	out := make([]RollingSeries, 0, len(series))
	for _, s := range series {
		values := make([]float64, len(s.Records))
		for i, r := range s.Records {
			values[i] = Value(r.NewCases)
		}
		means := RollingMean(values, window)

		points := make([]RollingPoint, len(s.Records))
		for i, r := range s.Records {
			points[i] = RollingPoint{Date: r.Date, Mean: means[i]}
		}
		out = append(out, RollingSeries{Location: s.Location, Points: points})
	}
	return out
}

// MapPoints returns one point per iso_code for records dated on date.
// Records without an iso_code are skipped.
func MapPoints(ds Dataset, date time.Time) []MapPoint {
	var out []MapPoint
	for _, r := range RecordsOn(ds, date) {
		if r.ISOCode == "" {
			continue
		}
		out = append(out, MapPoint{
			ISOCode:              r.ISOCode,
			Location:             r.Location,
			TotalCasesPerMillion: r.TotalCasesPerMillion,
		})
	}
	return out
}

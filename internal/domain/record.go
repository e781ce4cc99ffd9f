package domain

import (
	"errors"
	"slices"
	"time"
)

// OWID column names used by the tracker.
const (
	ColISOCode                         = "iso_code"
	ColLocation                        = "location"
	ColDate                            = "date"
	ColTotalCases                      = "total_cases"
	ColNewCases                        = "new_cases"
	ColTotalDeaths                     = "total_deaths"
	ColNewDeaths                       = "new_deaths"
	ColTotalCasesPerMillion            = "total_cases_per_million"
	ColPeopleFullyVaccinatedPerHundred = "people_fully_vaccinated_per_hundred"
)

// DateLayout is the OWID date format.
const DateLayout = "2006-01-02"

// ErrFeatureUnavailable is returned by reporters whose optional input columns
// are missing from the dataset.
var ErrFeatureUnavailable = errors.New("feature unavailable: required columns missing")

// ErrNoSnapshot is returned by reporters that need the latest snapshot when
// none of the selected countries has any rows.
var ErrNoSnapshot = errors.New("no snapshot: selected countries have no records")

// Record is one (location, date) observation. Numeric fields are nil when the
// source cell was empty.
type Record struct {
	ISOCode  string    `json:"iso_code,omitempty"`
	Location string    `json:"location"`
	RawDate  string    `json:"-"`
	Date     time.Time `json:"date"`

	TotalCases  *float64 `json:"total_cases"`
	NewCases    *float64 `json:"new_cases"`
	TotalDeaths *float64 `json:"total_deaths"`
	NewDeaths   *float64 `json:"new_deaths"`

	TotalCasesPerMillion            *float64 `json:"total_cases_per_million,omitempty"`
	PeopleFullyVaccinatedPerHundred *float64 `json:"people_fully_vaccinated_per_hundred,omitempty"`

	// DeathRate is set by AddDeathRate; nil when total_cases is 0.
	DeathRate *float64 `json:"death_rate"`
}

// Dataset is an ordered collection of records plus the CSV header it was
// decoded from.
type Dataset struct {
	Columns []string
	Records []Record
	// SourceMissing holds empty-cell counts per CSV column as decoded,
	// including columns Record does not carry. Nil for derived datasets.
	SourceMissing map[string]int
}

// HasColumn reports whether the source CSV carried the named column.
func (d Dataset) HasColumn(name string) bool {
	return slices.Contains(d.Columns, name)
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// Locations returns the distinct locations in first-seen order.
func (d Dataset) Locations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Records {
		if _, ok := seen[r.Location]; ok {
			continue
		}
		seen[r.Location] = struct{}{}
		out = append(out, r.Location)
	}
	return out
}

// withRecords returns a dataset sharing d's columns. SourceMissing describes
// the decoded rows only and is not carried over.
func (d Dataset) withRecords(records []Record) Dataset {
	return Dataset{Columns: d.Columns, Records: records}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, treating nil as 0.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

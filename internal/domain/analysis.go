package domain

import "time"

// sampleLocationCount bounds Profile.SampleLocations.
const sampleLocationCount = 10

// Profile summarizes a raw dataset before cleaning.
type Profile struct {
	Rows            int
	Columns         []string
	UniqueLocations int
	SampleLocations []string
	// Missing counts empty cells for every column of the CSV.
	Missing map[string]int
}

// Analysis is everything the reporters consume. It is built once and only read
// afterwards.
type Analysis struct {
	GeneratedAt time.Time
	Profile     Profile

	CountryRows int
	Selected    Dataset
	Filled      map[string]int

	// LatestDate is the maximum date of Selected; zero when Selected is empty.
	LatestDate time.Time
	// Latest is the snapshot on LatestDate sorted by total cases.
	Latest []Record

	VaccinationAvailable bool
	// Vaccination is the snapshot sorted by fully vaccinated percentage.
	Vaccination []Record

	Series        []Series
	RollingWindow int
	Rolling       []RollingSeries

	// MapAvailable reports that the map columns are present. MapPoints is
	// still empty when there is no LatestDate to select them by.
	MapAvailable bool
	// MapPoints come from the full dataset, aggregates included.
	MapPoints []MapPoint
}

// Analyze cleans raw and derives every report input from it.
func Analyze(raw Dataset, window int) (*Analysis, error) {
	if window < 1 {
		window = DefaultRollingWindow
	}

	cleaned, err := Clean(raw)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		GeneratedAt:   clock.Now().UTC(),
		Profile:       ProfileDataset(raw),
		CountryRows:   cleaned.Countries.Len(),
		Selected:      cleaned.Selected,
		Filled:        cleaned.Filled,
		RollingWindow: window,
	}

	latest, ok := LatestDate(cleaned.Selected)
	if ok {
		a.LatestDate = latest
		a.Latest = SortByTotalCases(RecordsOn(cleaned.Selected, latest))
	}

	if cleaned.Selected.HasColumn(ColPeopleFullyVaccinatedPerHundred) {
		a.VaccinationAvailable = true
		a.Vaccination = SortByVaccination(a.Latest)
	}

	a.Series = SeriesByLocation(cleaned.Selected, CountriesOfInterest)
	a.Rolling = RollingNewCases(a.Series, window)

	a.MapAvailable = raw.HasColumn(ColISOCode) && raw.HasColumn(ColTotalCasesPerMillion)
	if a.MapAvailable && ok {
		// Dates are needed on the full dataset; Clean already validated them.
		full, err := ParseDates(raw)
		if err != nil {
			return nil, err
		}
		a.MapPoints = MapPoints(full, latest)
	}

	return a, nil
}

// ProfileDataset counts rows, locations and missing values of a raw dataset.
// Columns Record does not carry are taken from ds.SourceMissing.
func ProfileDataset(ds Dataset) Profile {
	locations := ds.Locations()
	sample := locations
	if len(sample) > sampleLocationCount {
		sample = sample[:sampleLocationCount]
	}

	p := Profile{
		Rows:            ds.Len(),
		Columns:         ds.Columns,
		UniqueLocations: len(locations),
		SampleLocations: sample,
		Missing:         make(map[string]int),
	}

	for _, col := range ds.Columns {
		get, ok := columnAccessors[col]
		if !ok {
			if n, counted := ds.SourceMissing[col]; counted {
				p.Missing[col] = n
			}
			continue
		}
		n := 0
		for _, r := range ds.Records {
			if get(r) {
				n++
			}
		}
		p.Missing[col] = n
	}
	return p
}

// columnAccessors report whether a record's modeled column is empty.
var columnAccessors = map[string]func(Record) bool{
	ColISOCode:                         func(r Record) bool { return r.ISOCode == "" },
	ColLocation:                        func(r Record) bool { return r.Location == "" },
	ColDate:                            func(r Record) bool { return r.RawDate == "" && r.Date.IsZero() },
	ColTotalCases:                      func(r Record) bool { return r.TotalCases == nil },
	ColNewCases:                        func(r Record) bool { return r.NewCases == nil },
	ColTotalDeaths:                     func(r Record) bool { return r.TotalDeaths == nil },
	ColNewDeaths:                       func(r Record) bool { return r.NewDeaths == nil },
	ColTotalCasesPerMillion:            func(r Record) bool { return r.TotalCasesPerMillion == nil },
	ColPeopleFullyVaccinatedPerHundred: func(r Record) bool { return r.PeopleFullyVaccinatedPerHundred == nil },
}

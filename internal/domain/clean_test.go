package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIndia  = "India"
	testKenya  = "Kenya"
	testCanada = "Canada"
	testAsia   = "Asia"
)

var testColumns = []string{
	ColISOCode, ColLocation, ColDate,
	ColTotalCases, ColNewCases, ColTotalDeaths, ColNewDeaths,
	ColTotalCasesPerMillion,
}

func rawRecord(location, date string, totalCases, totalDeaths *float64) Record {
	return Record{
		Location:    location,
		RawDate:     date,
		TotalCases:  totalCases,
		NewCases:    Float(1),
		TotalDeaths: totalDeaths,
		NewDeaths:   Float(0),
	}
}

func TestParseDates(t *testing.T) {
	t.Run("valid dates", func(t *testing.T) {
		ds := Dataset{Columns: testColumns, Records: []Record{
			rawRecord(testIndia, "2021-03-15", Float(1), Float(0)),
			rawRecord(testIndia, " 2021-03-16 ", Float(1), Float(0)),
		}}

		out, err := ParseDates(ds)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), out.Records[0].Date)
		assert.Equal(t, time.Date(2021, 3, 16, 0, 0, 0, 0, time.UTC), out.Records[1].Date)
		assert.True(t, ds.Records[0].Date.IsZero(), "input must not be mutated")
	})

	t.Run("malformed date", func(t *testing.T) {
		ds := Dataset{Records: []Record{rawRecord(testIndia, "15/03/2021", nil, nil)}}
		_, err := ParseDates(ds)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse date")
		assert.Contains(t, err.Error(), testIndia)
	})

	t.Run("pre-parsed record kept", func(t *testing.T) {
		d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		ds := Dataset{Records: []Record{{Location: testIndia, Date: d}}}
		out, err := ParseDates(ds)
		require.NoError(t, err)
		assert.Equal(t, d, out.Records[0].Date)
	})
}

func TestDropLocations_RemovesAggregates(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Location: testAsia},
		{Location: "World"},
		{Location: "European Union"},
		{Location: testIndia},
		{Location: testCanada},
	}}

	out := DropLocations(ds, Aggregates)

	assert.Equal(t, []string{testIndia, testCanada}, out.Locations())
	for _, r := range out.Records {
		assert.NotEqual(t, testAsia, r.Location)
	}
}

func TestKeepLocations_AllowList(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Location: testIndia},
		{Location: testCanada},
		{Location: testKenya},
		{Location: "Japan"},
	}}

	out := KeepLocations(ds, CountriesOfInterest)

	assert.Equal(t, []string{testIndia, testKenya, "Japan"}, out.Locations())
	assert.NotContains(t, out.Locations(), testCanada)
	assert.Len(t, CountriesOfInterest, 11)
}

func TestFillMissing(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Location: testIndia, TotalCases: nil, NewCases: nil, TotalDeaths: Float(3), NewDeaths: nil},
		{Location: testIndia, TotalCases: Float(10), NewCases: nil, TotalDeaths: nil, NewDeaths: Float(1)},
	}}

	out, filled := FillMissing(ds)

	for _, r := range out.Records {
		require.NotNil(t, r.TotalCases)
		require.NotNil(t, r.NewCases)
		require.NotNil(t, r.TotalDeaths)
		require.NotNil(t, r.NewDeaths)
	}
	assert.InDelta(t, 0.0, *out.Records[0].TotalCases, 0.0001)
	assert.InDelta(t, 3.0, *out.Records[0].TotalDeaths, 0.0001)
	assert.InDelta(t, 10.0, *out.Records[1].TotalCases, 0.0001)

	assert.Equal(t, map[string]int{
		ColTotalCases:  1,
		ColNewCases:    2,
		ColTotalDeaths: 1,
		ColNewDeaths:   1,
	}, filled)
	assert.Nil(t, ds.Records[0].TotalCases, "input must not be mutated")
}

func TestDeathRate(t *testing.T) {
	tests := []struct {
		name   string
		deaths float64
		cases  float64
		want   *float64
	}{
		{"india example", 2, 100, Float(2.0)},
		{"rounds to two decimals", 1, 3, Float(33.33)},
		{"rounds up", 2, 3, Float(66.67)},
		{"zero deaths", 0, 50, Float(0)},
		{"zero cases undefined", 5, 0, nil},
		{"zero over zero undefined", 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeathRate(tt.deaths, tt.cases)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestAddDeathRate(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Location: testIndia, TotalCases: Float(100), TotalDeaths: Float(2)},
		{Location: testKenya, TotalCases: Float(0), TotalDeaths: Float(0)},
	}}

	out := AddDeathRate(ds)

	require.NotNil(t, out.Records[0].DeathRate)
	assert.InDelta(t, 2.0, *out.Records[0].DeathRate, 1e-9)
	assert.Nil(t, out.Records[1].DeathRate)
}

func TestClean(t *testing.T) {
	raw := Dataset{Columns: testColumns, Records: []Record{
		rawRecord(testAsia, "2021-01-01", Float(1000), Float(10)),
		rawRecord(testCanada, "2021-01-01", Float(500), Float(5)),
		rawRecord(testIndia, "2021-01-01", Float(100), Float(2)),
		rawRecord(testKenya, "2021-01-01", nil, nil),
	}}

	cleaned, err := Clean(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{testCanada, testIndia, testKenya}, cleaned.Countries.Locations())
	assert.Equal(t, []string{testIndia, testKenya}, cleaned.Selected.Locations())
	assert.Equal(t, testColumns, cleaned.Selected.Columns)

	india := cleaned.Selected.Records[0]
	require.NotNil(t, india.DeathRate)
	assert.InDelta(t, 2.0, *india.DeathRate, 1e-9)

	kenya := cleaned.Selected.Records[1]
	require.NotNil(t, kenya.TotalCases)
	assert.InDelta(t, 0.0, *kenya.TotalCases, 1e-9)
	assert.Nil(t, kenya.DeathRate)

	assert.Equal(t, 1, cleaned.Filled[ColTotalCases])
	assert.Equal(t, 1, cleaned.Filled[ColTotalDeaths])
	assert.Equal(t, 0, cleaned.Filled[ColNewCases])
}

func TestClean_PropagatesDateError(t *testing.T) {
	raw := Dataset{Records: []Record{rawRecord(testIndia, "not-a-date", nil, nil)}}
	_, err := Clean(raw)
	require.Error(t, err)
}

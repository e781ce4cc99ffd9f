package console

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnalysis() *domain.Analysis {
	return &domain.Analysis{
		Profile: domain.Profile{
			Rows:            42,
			Columns:         []string{"location", "date", "total_cases"},
			UniqueLocations: 3,
			SampleLocations: []string{"India", "Kenya", "Asia"},
			Missing:         map[string]int{"total_cases": 4, "location": 0},
		},
		CountryRows: 30,
		Selected:    domain.Dataset{Records: make([]domain.Record, 20)},
		Filled:      map[string]int{domain.ColTotalCases: 4, domain.ColNewDeaths: 1},
		LatestDate:  time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC),
		Latest: []domain.Record{
			{Location: "India", TotalCases: domain.Float(4400), TotalDeaths: domain.Float(90), DeathRate: domain.Float(2.05)},
			{Location: "Kenya", TotalCases: domain.Float(0), TotalDeaths: domain.Float(0)},
		},
		VaccinationAvailable: true,
		Vaccination: []domain.Record{
			{Location: "India", PeopleFullyVaccinatedPerHundred: domain.Float(17)},
			{Location: "Kenya"},
		},
	}
}

func TestSummary_Report(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary(&buf)

	require.NoError(t, s.Report(context.Background(), testAnalysis()))
	out := buf.String()

	assert.Contains(t, out, "DATA EXPLORATION")
	assert.Contains(t, out, "Total unique locations: 3")
	assert.Contains(t, out, "Sample locations: India, Kenya, Asia")
	assert.Contains(t, out, "Remaining rows after removing aggregates: 30")
	assert.Contains(t, out, "Filled 4 missing values in 'total_cases' with 0")
	assert.Contains(t, out, "Filled 0 missing values in 'new_cases' with 0")
	assert.Contains(t, out, "Latest date in the dataset: 2021-03-10")
	assert.Contains(t, out, "4400")
	assert.Contains(t, out, "2.05")
	assert.Contains(t, out, "NaN", "undefined death rate is shown as NaN")
	assert.Contains(t, out, "17.00")
	assert.NotContains(t, out, "Vaccination data not available")
	assert.Equal(t, "console", s.Name())
}

func TestSummary_VaccinationUnavailable(t *testing.T) {
	a := testAnalysis()
	a.VaccinationAvailable = false
	a.Vaccination = nil

	var buf bytes.Buffer
	require.NoError(t, NewSummary(&buf).Report(context.Background(), a))
	assert.Contains(t, buf.String(), "Vaccination data not available in the dataset")
}

func TestSummary_EmptySelection(t *testing.T) {
	a := testAnalysis()
	a.LatestDate = time.Time{}
	a.Latest = nil

	var buf bytes.Buffer
	require.NoError(t, NewSummary(&buf).Report(context.Background(), a))
	assert.Contains(t, buf.String(), "No records for the selected countries")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestSummary_WriteError(t *testing.T) {
	err := NewSummary(failingWriter{}).Report(context.Background(), testAnalysis())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "NaN", formatNumber(nil, 2))
	assert.Equal(t, "1234", formatNumber(domain.Float(1234.4), 0))
	assert.Equal(t, "2.05", formatNumber(domain.Float(2.049999), 2))
}

func TestMissingRows_ColumnOrder(t *testing.T) {
	rows := missingRows(domain.Profile{
		Columns: []string{"location", "continent", "date"},
		Missing: map[string]int{"date": 0, "continent": 20, "location": 0},
	})

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"location", "0"}, rows[1])
	assert.Equal(t, []string{"continent", "20"}, rows[2])
	assert.Equal(t, []string{"date", "0"}, rows[3])
}

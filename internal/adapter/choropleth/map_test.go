package choropleth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_Report(t *testing.T) {
	dir := t.TempDir()
	a := &domain.Analysis{
		GeneratedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		LatestDate:   time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC),
		MapAvailable: true,
		MapPoints: []domain.MapPoint{
			{ISOCode: "IND", Location: "India", TotalCasesPerMillion: domain.Float(3142.857)},
			{ISOCode: "CIV", Location: "Cote d'Ivoire", TotalCasesPerMillion: nil},
		},
	}

	m := NewMap(dir)
	require.NoError(t, m.Report(context.Background(), a))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>COVID-19 Total Cases per Million People (Global View)</title>")
	assert.Contains(t, html, `"IND"`)
	assert.Contains(t, html, "3142.857")
	assert.Contains(t, html, "null", "missing values are emitted as null")
	assert.Contains(t, html, "Data as of 2021-03-10")
	assert.Contains(t, html, `"Plasma"`)
	assert.Contains(t, html, `"India"`)
	assert.Equal(t, "choropleth-map", m.Name())
}

func TestMap_Unavailable(t *testing.T) {
	dir := t.TempDir()

	err := NewMap(dir).Report(context.Background(), &domain.Analysis{})
	require.ErrorIs(t, err, domain.ErrFeatureUnavailable)
	assert.NoFileExists(t, filepath.Join(dir, FileName))
}

func TestMap_UnwritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	a := &domain.Analysis{MapAvailable: true, LatestDate: time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC)}
	err := NewMap(dir).Report(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create map")
}

func TestMap_NoSnapshot(t *testing.T) {
	dir := t.TempDir()

	err := NewMap(dir).Report(context.Background(), &domain.Analysis{MapAvailable: true})
	require.ErrorIs(t, err, domain.ErrNoSnapshot)
	assert.NotErrorIs(t, err, domain.ErrFeatureUnavailable)
	assert.NoFileExists(t, filepath.Join(dir, FileName))
}

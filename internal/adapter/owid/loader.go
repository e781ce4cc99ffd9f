package owid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// requiredColumns must be present in every source file.
var requiredColumns = []string{
	domain.ColLocation,
	domain.ColDate,
	domain.ColTotalCases,
	domain.ColNewCases,
	domain.ColTotalDeaths,
	domain.ColNewDeaths,
}

// Loader fetches the OWID CSV from an HTTP(S) URL or a local path.
// It implements pipeline.Loader.
type Loader struct {
	source     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a Loader. source is either an http(s) URL, a file:// URL
// or a filesystem path.
func NewLoader(source string, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Source returns the configured location.
func (l *Loader) Source() string {
	return l.source
}

// Load reads and decodes the dataset. Any failure is returned; there are no retries.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	body, err := l.open(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	defer body.Close()

	ds, err := Decode(body)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("decode %s: %w", l.source, err)
	}

	l.logger.Info("dataset loaded", "source", l.source, "rows", ds.Len(), "columns", len(ds.Columns))
	return ds, nil
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(l.source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.fetch(ctx)
	}

	path := l.source
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	return f, nil
}

func (l *Loader) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch dataset: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// Decode parses OWID CSV content into a Dataset. Empty numeric cells become nil.
func Decode(r io.Reader) (domain.Dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return domain.Dataset{}, fmt.Errorf("read csv: %w", df.Err)
	}

	names := df.Names()
	ds := domain.Dataset{Columns: names}
	for _, col := range requiredColumns {
		if !ds.HasColumn(col) {
			return domain.Dataset{}, fmt.Errorf("missing required column %q", col)
		}
	}

	locations := df.Col(domain.ColLocation).Records()
	dates := df.Col(domain.ColDate).Records()
	isoCodes := optionalStrings(df, ds, domain.ColISOCode)

	totalCases := floats(df.Col(domain.ColTotalCases))
	newCases := floats(df.Col(domain.ColNewCases))
	totalDeaths := floats(df.Col(domain.ColTotalDeaths))
	newDeaths := floats(df.Col(domain.ColNewDeaths))
	perMillion := optionalFloats(df, ds, domain.ColTotalCasesPerMillion)
	vaccinated := optionalFloats(df, ds, domain.ColPeopleFullyVaccinatedPerHundred)

	records := make([]domain.Record, df.Nrow())
	for i := range records {
		records[i] = domain.Record{
			ISOCode:     at(isoCodes, i),
			Location:    locations[i],
			RawDate:     dates[i],
			TotalCases:  totalCases[i],
			NewCases:    newCases[i],
			TotalDeaths: totalDeaths[i],
			NewDeaths:   newDeaths[i],

			TotalCasesPerMillion:            atFloat(perMillion, i),
			PeopleFullyVaccinatedPerHundred: atFloat(vaccinated, i),
		}
	}
	ds.Records = records
	ds.SourceMissing = missingCells(df)
	return ds, nil
}

// missingCells counts empty cells in every column of df.
func missingCells(df dataframe.DataFrame) map[string]int {
	out := make(map[string]int, df.Ncol())
	for _, name := range df.Names() {
		n := 0
		for _, v := range df.Col(name).Records() {
			if v == "" || v == "NaN" {
				n++
			}
		}
		out[name] = n
	}
	return out
}

// floats converts a series to nullable floats; unparsable and empty cells are nil.
func floats(s series.Series) []*float64 {
	values := s.Float()
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = domain.Float(v)
	}
	return out
}

func optionalFloats(df dataframe.DataFrame, ds domain.Dataset, col string) []*float64 {
	if !ds.HasColumn(col) {
		return nil
	}
	return floats(df.Col(col))
}

func optionalStrings(df dataframe.DataFrame, ds domain.Dataset, col string) []string {
	if !ds.HasColumn(col) {
		return nil
	}
	return df.Col(col).Records()
}

func at(values []string, i int) string {
	if values == nil {
		return ""
	}
	return values[i]
}

func atFloat(values []*float64, i int) *float64 {
	if values == nil {
		return nil
	}
	return values[i]
}

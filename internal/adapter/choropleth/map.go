// Package choropleth writes the world map of total cases per million as a
// standalone HTML page rendered client-side by plotly.js.
package choropleth

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// FileName is the map output file.
const FileName = "covid_cases_map.html"

const title = "COVID-19 Total Cases per Million People (Global View)"

// plotlyURL pins the client library version the page loads.
const plotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.PlotlyURL}}"></script>
</head>
<body>
<div id="map" style="width:100%;height:90vh;"></div>
<p>Data as of {{.AsOf}}, generated {{.GeneratedAt}}.</p>
<script>
Plotly.newPlot("map", [{
  type: "choropleth",
  locationmode: "ISO-3",
  locations: {{.Locations}},
  z: {{.Values}},
  text: {{.Names}},
  hovertemplate: "<b>%{text}</b><br>%{z:,.1f} cases per million<extra></extra>",
  colorscale: "Plasma",
  colorbar: {title: "Cases per Million"}
}], {
  title: {text: {{.Title}}, font: {size: 20}},
  geo: {showframe: false, showcoastlines: true}
});
</script>
</body>
</html>
`))

type page struct {
	Title       string
	PlotlyURL   string
	AsOf        string
	GeneratedAt string
	Locations   []string
	Values      []*float64
	Names       []string
}

// Map writes the choropleth page. It implements pipeline.Reporter.
type Map struct {
	dir string
}

// NewMap creates a Map writing into dir.
func NewMap(dir string) *Map {
	return &Map{dir: dir}
}

// Name identifies the reporter in logs and metrics.
func (m *Map) Name() string { return "choropleth-map" }

// Report writes FileName. It is skipped when the map columns are absent or
// when there is no latest date to place the points on.
func (m *Map) Report(_ context.Context, a *domain.Analysis) (err error) {
	if !a.MapAvailable {
		return fmt.Errorf("choropleth map: %w", domain.ErrFeatureUnavailable)
	}
	if a.LatestDate.IsZero() {
		return fmt.Errorf("choropleth map: %w", domain.ErrNoSnapshot)
	}

	data := page{
		Title:       title,
		PlotlyURL:   plotlyURL,
		AsOf:        a.LatestDate.Format(domain.DateLayout),
		GeneratedAt: a.GeneratedAt.Format("2006-01-02 15:04 MST"),
		Locations:   make([]string, len(a.MapPoints)),
		Values:      make([]*float64, len(a.MapPoints)),
		Names:       make([]string, len(a.MapPoints)),
	}
	for i, p := range a.MapPoints {
		data.Locations[i] = p.ISOCode
		data.Values[i] = p.TotalCasesPerMillion
		data.Names[i] = p.Location
	}

	f, err := os.Create(filepath.Join(m.dir, FileName))
	if err != nil {
		return fmt.Errorf("create map: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close map: %w", cerr)
		}
	}()

	if err := pageTmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}

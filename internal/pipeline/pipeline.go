package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// ErrLoad marks failures to obtain a usable dataset. Callers treat it as fatal.
var ErrLoad = errors.New("load dataset")

// Loader reads the raw dataset from its source.
type Loader interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Reporter consumes a finished analysis and produces one output artifact.
// It returns domain.ErrFeatureUnavailable when its optional inputs are missing
// and domain.ErrNoSnapshot when there is no latest snapshot to report on.
type Reporter interface {
	Name() string
	Report(ctx context.Context, a *domain.Analysis) error
}

// Pipeline runs load, clean, aggregate and report once.
type Pipeline struct {
	loader    Loader
	reporters []Reporter
	window    int
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(l Loader, reporters []Reporter, window int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:    l,
		reporters: reporters,
		window:    window,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("tracker has not completed a run yet")
	}
	return nil
}

// Run executes the pipeline. A load failure is returned wrapped in ErrLoad
// before any reporter runs. Reporter failures do not stop later reporters;
// they are joined into the returned error alongside the analysis.
func (p *Pipeline) Run(ctx context.Context) (*domain.Analysis, error) {
	start := time.Now()
	raw, err := p.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.metrics.RowsLoaded.Add(float64(raw.Len()))

	analysis, err := domain.Analyze(raw, p.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	p.recordCleaning(analysis)

	p.logger.Info("analysis complete",
		"rows", analysis.Profile.Rows,
		"country_rows", analysis.CountryRows,
		"selected_rows", analysis.Selected.Len(),
		"latest_date", analysis.LatestDate.Format(domain.DateLayout),
	)

	var errs []error
	for _, r := range p.reporters {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.report(ctx, r, analysis); err != nil {
			errs = append(errs, err)
		}
	}

	p.ready.Store(true)
	if len(errs) > 0 {
		return analysis, errors.Join(errs...)
	}
	p.metrics.LastRunSuccess.SetToCurrentTime()
	return analysis, nil
}

// report runs one reporter; skipped features are logged and not returned.
func (p *Pipeline) report(ctx context.Context, r Reporter, a *domain.Analysis) error {
	err := r.Report(ctx, a)
	switch {
	case err == nil:
		p.metrics.Reports.WithLabelValues(r.Name(), "written").Inc()
		p.logger.Debug("report written", "reporter", r.Name())
		return nil
	case errors.Is(err, domain.ErrFeatureUnavailable), errors.Is(err, domain.ErrNoSnapshot):
		p.metrics.Reports.WithLabelValues(r.Name(), "skipped").Inc()
		p.logger.Warn("report skipped", "reporter", r.Name(), "reason", err)
		return nil
	default:
		p.metrics.Reports.WithLabelValues(r.Name(), "failed").Inc()
		p.logger.Error("report failed", "reporter", r.Name(), "error", err)
		return fmt.Errorf("%s: %w", r.Name(), err)
	}
}

func (p *Pipeline) recordCleaning(a *domain.Analysis) {
	p.metrics.RowsDropped.WithLabelValues("aggregates").Add(float64(a.Profile.Rows - a.CountryRows))
	p.metrics.RowsDropped.WithLabelValues("allow_list").Add(float64(a.CountryRows - a.Selected.Len()))
	for metric, n := range a.Filled {
		p.metrics.ValuesFilled.WithLabelValues(metric).Add(float64(n))
	}
}

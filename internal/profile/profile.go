// SPDX-License-Identifier: MIT

// Package profile runs the full exploratory analysis over a dataset: shape
// overview, per-column summaries, frequency tables, histograms, best-fit
// distributions and the correlation matrix, assembled into one Report.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/describe"
	"github.com/john-james-ai/d8analysis/internal/distribution"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/metrics"
	"github.com/john-james-ai/d8analysis/internal/stattest"
	"github.com/john-james-ai/d8analysis/internal/visual"
)

// Config holds the knobs of a profiling run.
type Config struct {
	// ReportDir is where WriteReport drops report files.
	ReportDir string
	// MaxConcurrency bounds the per-column workers. Zero means 4.
	MaxConcurrency int
	// TopK truncates categorical frequency tables. Zero means 10.
	TopK int
	// Bins sets the histogram bin count. Zero applies the Sturges rule.
	Bins int
	// Alpha is the significance level for best-fit ranking and normality
	// checks. Zero means 0.05.
	Alpha float64
	// BestFit enables distribution fitting for numeric columns.
	BestFit bool
	// Correlations enables the numeric correlation heatmap.
	Correlations bool
	// SampleRows is the number of preview rows embedded in the report.
	// Zero means 10, negative disables the preview.
	SampleRows int
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 4
	}
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.Alpha <= 0 {
		c.Alpha = stattest.DefaultAlpha
	}
	if c.Bins < 0 {
		c.Bins = 0
	}
	if c.SampleRows == 0 {
		c.SampleRows = 10
	}
	return c
}

// ColumnProfile is the full analysis of one column. Which sections are
// present depends on the column kind.
type ColumnProfile struct {
	dataset.ColumnInfo
	Numeric     *describe.NumericSummary     `json:"numeric,omitempty"`
	Categorical *describe.CategoricalSummary `json:"categorical,omitempty"`
	Frequency   *dataset.FrequencyTable      `json:"frequency,omitempty"`
	Histogram   *visual.ChartConfig          `json:"histogram,omitempty"`
	BestFit     *distribution.Candidate      `json:"best_fit,omitempty"`
	Normality   *stattest.Result             `json:"normality,omitempty"`
}

// SamplePreview is a rendered excerpt of the dataset's first rows.
type SamplePreview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Report is the JSON document produced by a profiling run.
type Report struct {
	DatasetID       string                `json:"dataset_id"`
	DatasetName     string                `json:"dataset_name"`
	Fingerprint     string                `json:"fingerprint"`
	GeneratedAt     time.Time             `json:"generated_at"`
	DurationSeconds float64               `json:"duration_seconds"`
	Overview        dataset.OverviewStats `json:"overview"`
	Columns         []ColumnProfile       `json:"columns"`
	Correlation     *visual.ChartConfig   `json:"correlation,omitempty"`
	Sample          *SamplePreview        `json:"sample,omitempty"`
}

// Status reports the most recent profiling outcome.
type Status struct {
	LastRun  time.Time `json:"last_run"`
	Datasets int       `json:"datasets"`
	Columns  int       `json:"columns"`
	Error    string    `json:"error,omitempty"`
}

// Run profiles every column of the dataset with at most
// cfg.MaxConcurrency columns in flight. Column order in the report matches
// dataset order regardless of completion order. Cancelling ctx aborts the
// run promptly.
func Run(ctx context.Context, cfg Config, ds *dataset.Dataset) (*Report, error) {
	cfg = cfg.withDefaults()
	logger := d8log.WithComponentFromContext(ctx, "profile")
	start := time.Now()

	ctx, span := StartProfileSpan(ctx)
	defer span.End()

	logger.Info().
		Str("event", "profile.start").
		Str(d8log.FieldDatasetID, ds.ID()).
		Int(d8log.FieldRows, ds.Len()).
		Int(d8log.FieldColumns, len(ds.Columns())).
		Msg("starting profile run")

	report := &Report{
		DatasetID:   ds.ID(),
		DatasetName: ds.Name(),
		Fingerprint: ds.Fingerprint(),
		GeneratedAt: start.UTC(),
		Overview:    ds.Overview(),
		Columns:     make([]ColumnProfile, len(ds.Columns())),
	}

	infos := ds.Info()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)
	for i := range infos {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cp, err := profileColumn(gctx, cfg, ds, infos[i])
			if err != nil {
				return fmt.Errorf("column %q: %w", infos[i].Name, err)
			}
			report.Columns[i] = cp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		outcome := "failure"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "canceled"
		}
		metrics.RecordProfileRun(outcome, time.Since(start).Seconds())
		EmitProfileObs(ctx, ds.ID(), ds.Len(), len(report.Columns), outcome)
		logger.Error().
			Err(err).
			Str("event", "profile.failed").
			Str(d8log.FieldDatasetID, ds.ID()).
			Msg("profile run failed")
		return nil, err
	}

	if cfg.Correlations {
		attachCorrelation(report, ds, logger)
	}
	if cfg.SampleRows > 0 {
		report.Sample = Preview(ds, cfg.SampleRows)
	}

	report.DurationSeconds = time.Since(start).Seconds()
	metrics.RecordProfileRun("success", report.DurationSeconds)
	metrics.AddProfiledColumns(len(report.Columns))
	metrics.AddProfiledRows(ds.Len())
	EmitProfileObs(ctx, ds.ID(), ds.Len(), len(report.Columns), "success")

	logger.Info().
		Str("event", "profile.success").
		Str(d8log.FieldDatasetID, ds.ID()).
		Int(d8log.FieldColumns, len(report.Columns)).
		Float64("duration_seconds", report.DurationSeconds).
		Msg("profile run completed")
	return report, nil
}

// profileColumn analyses one column. Degenerate columns produce partial
// profiles, never errors; only context cancellation aborts.
func profileColumn(ctx context.Context, cfg Config, ds *dataset.Dataset, info dataset.ColumnInfo) (ColumnProfile, error) {
	cp := ColumnProfile{ColumnInfo: info}
	col, err := ds.Column(info.Name)
	if err != nil {
		return cp, err
	}

	switch col.Kind() {
	case dataset.KindNumeric:
		values := col.Floats()
		s := describe.NumericValues(col.Name(), values, col.Nulls())
		cp.Numeric = &s
		if err := ctx.Err(); err != nil {
			return cp, err
		}

		var overlay distribution.Distribution
		if cfg.BestFit {
			if cands, err := distribution.Candidates(values, cfg.Alpha); err == nil {
				best := cands[0]
				cp.BestFit = &best
				overlay = best.Distribution
				metrics.IncBestFit(string(best.Name))
			}
			// Degenerate columns legitimately have no candidates.
		}

		if hist, err := visual.Histogram(col, cfg.Bins, overlay); err == nil {
			cp.Histogram = hist
		} else if !errors.Is(err, dataset.ErrNoRows) {
			metrics.IncProfileStageFailure("histogram")
		}

		if norm, err := distribution.Fit(distribution.Normal, values); err == nil {
			if res, err := stattest.KolmogorovSmirnov(values, norm.CDF, cfg.Alpha); err == nil {
				cp.Normality = &res
			}
		}

	case dataset.KindCategorical, dataset.KindBoolean:
		s := describe.CategoricalValues(col.Name(), stringValues(col), col.Nulls())
		cp.Categorical = &s
		freq, err := ds.Frequency(info.Name, dataset.FrequencyOptions{
			TopK:        cfg.TopK,
			SortByCount: true,
		})
		if err != nil {
			metrics.IncProfileStageFailure("frequency")
			return cp, err
		}
		cp.Frequency = freq

	case dataset.KindDatetime:
		// Shape statistics only.
	}
	return cp, nil
}

// attachCorrelation adds the heatmap when at least two numeric columns
// exist; otherwise the report simply omits it.
func attachCorrelation(report *Report, ds *dataset.Dataset, logger zerolog.Logger) {
	names, matrix, err := describe.CorrelationMatrix(ds)
	if err != nil || len(names) < 2 {
		return
	}
	heat, err := visual.CorrelationHeatmap(names, matrix)
	if err != nil {
		metrics.IncProfileStageFailure("correlation")
		logger.Warn().
			Err(err).
			Str("event", "profile.correlation_failed").
			Msg("correlation heatmap skipped")
		return
	}
	report.Correlation = heat
}

// Preview renders the first n rows as display strings in column order.
func Preview(ds *dataset.Dataset, n int) *SamplePreview {
	head := ds.Head(n)
	preview := &SamplePreview{
		Columns: head.Columns(),
		Rows:    make([][]string, head.Len()),
	}
	cols := make([]*dataset.Column, 0, len(preview.Columns))
	for _, name := range preview.Columns {
		col, err := head.Column(name)
		if err != nil {
			continue
		}
		cols = append(cols, col)
	}
	for i := 0; i < head.Len(); i++ {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = col.StringAt(i)
		}
		preview.Rows[i] = row
	}
	return preview
}

func stringValues(col *dataset.Column) []string {
	var out []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		out = append(out, col.StringAt(i))
	}
	return out
}

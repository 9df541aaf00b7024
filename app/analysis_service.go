package app

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"countglm/domain/core"
	"countglm/domain/model"
	"countglm/domain/sample"
	"countglm/internal"
	"countglm/internal/analysis/discretize"
	"countglm/internal/analysis/outliers"
	"countglm/internal/analysis/poisson"
	"countglm/internal/report"
	"countglm/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// AnalysisService runs the sanitize -> discretize -> fit pipeline.
// Each stage consumes an immutable input and produces a new immutable
// output; nothing is shared or mutated across stages.
type AnalysisService struct {
	logger *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(logger *internal.Logger) *AnalysisService {
	return &AnalysisService{logger: logger}
}

// Params defines one analysis run. Zero values fall back to the
// canonical policy (1.5x IQR fence, lexicographic reference, 1e-8
// tolerance, 25 iterations); the bin width has no sensible default and
// must be set.
type Params struct {
	BinWidth       float64
	IQRMultiplier  float64
	ReferenceLevel string
	Tolerance      float64
	MaxIterations  int
}

// Result is the complete output of one pipeline run.
type Result struct {
	AnalysisID core.AnalysisID    `json:"analysis_id"`
	Bounds     sample.Bounds      `json:"bounds"`
	Table      sample.CountTable  `json:"table"`
	Model      *model.FittedModel `json:"model"`
	Summary    report.Summary     `json:"summary"`
	RuntimeMs  int64              `json:"runtime_ms"`
}

// RunFromSource reads the record sequence through a sample reader port
// and runs the pipeline over it.
func (s *AnalysisService) RunFromSource(ctx context.Context, source ports.SampleReader, p Params) (*Result, error) {
	records, err := source.ReadSample(ctx)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, records, p)
}

// Run executes the pipeline over an in-memory record sequence. Errors
// surface immediately with no recovery; the caller decides whether to
// abort or report.
func (s *AnalysisService) Run(ctx context.Context, records []sample.Record, p Params) (*Result, error) {
	startTime := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sanitized, bounds, err := outliers.SanitizeRecords(records, outliers.Options{
		IQRMultiplier: p.IQRMultiplier,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("sanitized %d records, fence [%g, %g], mean %g",
		len(sanitized), bounds.Lower, bounds.Upper, bounds.Mean)

	table, err := discretize.AggregateRecords(sanitized, p.BinWidth, bounds.Upper)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("aggregated into %d cells over %d bins",
		len(table.Cells), len(table.Partition.Bins))

	fitted, err := poisson.Fit(table, poisson.Options{
		ReferenceLevel: p.ReferenceLevel,
		Tolerance:      p.Tolerance,
		MaxIterations:  p.MaxIterations,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fit converged in %d iterations, AIC %.2f", fitted.Iterations, fitted.AIC)

	return &Result{
		AnalysisID: fitted.AnalysisID,
		Bounds:     bounds,
		Table:      table,
		Model:      fitted,
		Summary:    report.Summarize(fitted),
		RuntimeMs:  time.Since(startTime).Milliseconds(),
	}, nil
}

// BootstrapSpec configures resampled confidence intervals.
type BootstrapSpec struct {
	Resamples int
	Seed      int64
	Level     float64 // confidence level, defaults to 0.95
}

// TermInterval is a percentile confidence interval for one model term.
type TermInterval struct {
	Term  string  `json:"term"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BootstrapResult aggregates the per-fold fits.
type BootstrapResult struct {
	Resamples int            `json:"resamples"`
	Succeeded int            `json:"succeeded"`
	Level     float64        `json:"level"`
	Intervals []TermInterval `json:"intervals"`
}

// Bootstrap fits the model across resamples of the sanitized records,
// each fold on its own independent count table, and returns percentile
// confidence intervals per term. Folds run concurrently; a fold that
// loses a category level in resampling is skipped, and the bootstrap
// fails only when fewer than half the folds fit.
func (s *AnalysisService) Bootstrap(ctx context.Context, records []sample.Record, p Params, spec BootstrapSpec) (*BootstrapResult, error) {
	if spec.Resamples < 2 {
		return nil, core.NewValidationError("resamples", "bootstrap needs at least 2 resamples")
	}
	level := spec.Level
	if level <= 0 || level >= 1 {
		level = 0.95
	}

	sanitized, bounds, err := outliers.SanitizeRecords(records, outliers.Options{
		IQRMultiplier: p.IQRMultiplier,
	})
	if err != nil {
		return nil, err
	}

	// Pin the reference on the full sample so every fold estimates the
	// same terms.
	baseTable, err := discretize.AggregateRecords(sanitized, p.BinWidth, bounds.Upper)
	if err != nil {
		return nil, err
	}
	base, err := poisson.Fit(baseTable, poisson.Options{
		ReferenceLevel: p.ReferenceLevel,
		Tolerance:      p.Tolerance,
		MaxIterations:  p.MaxIterations,
	})
	if err != nil {
		return nil, err
	}

	fits := make([]*model.FittedModel, spec.Resamples)
	g, ctx := errgroup.WithContext(ctx)
	for fold := 0; fold < spec.Resamples; fold++ {
		fold := fold
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(spec.Seed + int64(fold)))
			resampled := make([]sample.Record, len(sanitized))
			for i := range resampled {
				resampled[i] = sanitized[rng.Intn(len(sanitized))]
			}
			table, err := discretize.AggregateRecords(resampled, p.BinWidth, bounds.Upper)
			if err != nil {
				return err
			}
			fitted, err := poisson.Fit(table, poisson.Options{
				ReferenceLevel: base.ReferenceLevel,
				Tolerance:      p.Tolerance,
				MaxIterations:  p.MaxIterations,
			})
			if err != nil {
				// Degenerate resamples (a lost or emptied level) are
				// expected occasionally; skip the fold.
				if core.IsFitError(err) || core.IsInsufficientDataError(err) {
					s.logger.Warn("bootstrap fold %d skipped: %v", fold, err)
					return nil
				}
				return err
			}
			fits[fold] = fitted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	succeeded := 0
	estimates := make(map[string][]float64)
	for _, fitted := range fits {
		if fitted == nil {
			continue
		}
		succeeded++
		estimates[model.InterceptTerm] = append(estimates[model.InterceptTerm], fitted.Intercept.Estimate)
		for _, c := range fitted.Coefficients {
			estimates[c.Term] = append(estimates[c.Term], c.Estimate)
		}
	}
	if succeeded < spec.Resamples/2 {
		return nil, fmt.Errorf("bootstrap unstable: only %d of %d folds fit", succeeded, spec.Resamples)
	}

	alpha := (1 - level) / 2 * 100
	terms := make([]string, 0, len(estimates))
	for term := range estimates {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	intervals := make([]TermInterval, 0, len(terms))
	for _, term := range terms {
		// Nearest-rank percentiles stay defined even for a handful of folds.
		lo, err := stats.PercentileNearestRank(estimates[term], alpha)
		if err != nil {
			return nil, fmt.Errorf("bootstrap percentile for %s: %w", term, err)
		}
		hi, err := stats.PercentileNearestRank(estimates[term], 100-alpha)
		if err != nil {
			return nil, fmt.Errorf("bootstrap percentile for %s: %w", term, err)
		}
		intervals = append(intervals, TermInterval{Term: term, Lower: lo, Upper: hi})
	}

	return &BootstrapResult{
		Resamples: spec.Resamples,
		Succeeded: succeeded,
		Level:     level,
		Intervals: intervals,
	}, nil
}

package outliers

import (
	"math"

	"countglm/domain/core"
	"countglm/domain/sample"

	"github.com/montanaflynn/stats"
)

// DefaultIQRMultiplier is the classic 1.5x interquartile-range fence.
const DefaultIQRMultiplier = 1.5

// Options controls the outlier fence. The multiplier is exposed rather
// than hardcoded so a caller can widen or tighten the fence while the
// default reproduces the standard rule.
type Options struct {
	IQRMultiplier float64 // <= 0 means DefaultIQRMultiplier
}

// Sanitize replaces missing (NaN) and out-of-fence values with the
// arithmetic mean of the non-missing values. The fence is
// [Q1 - k*IQR, Q3 + k*IQR] over the non-missing values only.
//
// The output has the same length and order as the input. Negative
// in-fence values survive untouched; clipping to zero is the
// discretizer's job, not this one's.
func Sanitize(values []float64, opts Options) ([]float64, sample.Bounds, error) {
	k := opts.IQRMultiplier
	if k <= 0 {
		k = DefaultIQRMultiplier
	}

	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) < 2 {
		return nil, sample.Bounds{}, core.NewInsufficientDataError("quartile bounds", len(observed), 2)
	}

	q1, err := stats.Percentile(observed, 25)
	if err != nil {
		// Percentile needs enough points to interpolate the lower quartile.
		return nil, sample.Bounds{}, core.NewInsufficientDataError("quartile bounds", len(observed), 4)
	}
	q3, err := stats.Percentile(observed, 75)
	if err != nil {
		return nil, sample.Bounds{}, core.NewInsufficientDataError("quartile bounds", len(observed), 4)
	}
	mean, err := stats.Mean(observed)
	if err != nil {
		return nil, sample.Bounds{}, core.NewInsufficientDataError("sample mean", len(observed), 1)
	}

	iqr := q3 - q1
	bounds := sample.Bounds{
		Q1:    q1,
		Q3:    q3,
		Lower: q1 - k*iqr,
		Upper: q3 + k*iqr,
		Mean:  mean,
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || !bounds.Contains(v) {
			out[i] = bounds.Mean
		} else {
			out[i] = v
		}
	}
	return out, bounds, nil
}

// SanitizeRecords runs Sanitize over the value column of a record
// sequence, returning new records with original category labels.
func SanitizeRecords(records []sample.Record, opts Options) ([]sample.Record, sample.Bounds, error) {
	values, categories := sample.Split(records)
	sanitized, bounds, err := Sanitize(values, opts)
	if err != nil {
		return nil, sample.Bounds{}, err
	}
	out := make([]sample.Record, len(records))
	for i := range records {
		out[i] = sample.Record{Value: sanitized[i], Category: categories[i]}
	}
	return out, bounds, nil
}

package sample

import (
	"math"
	"sort"

	"countglm/domain/core"
)

// Record pairs one continuous measurement with its category label.
// A NaN value marks a missing measurement; the category is never
// missing here (records without a label are filtered upstream).
type Record struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// Missing reports whether the measurement is absent.
func (r Record) Missing() bool {
	return math.IsNaN(r.Value)
}

// Split separates records into order-aligned value and category slices.
func Split(records []Record) ([]float64, []string) {
	values := make([]float64, len(records))
	categories := make([]string, len(records))
	for i, r := range records {
		values[i] = r.Value
		categories[i] = r.Category
	}
	return values, categories
}

// Bounds holds the quartile-based retention window for one sample,
// computed once over the non-missing values and immutable thereafter.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Mean  float64 `json:"mean"`
}

// Contains reports whether v lies inside [Lower, Upper].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Interval is one bin of a fixed-width partition. Bins are
// left-open/right-closed (lo, hi], except the first bin which also
// includes its lower endpoint so that exact zeros land in it.
type Interval struct {
	Index int     `json:"index"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
}

// Contains reports whether v falls in this interval.
func (iv Interval) Contains(v float64) bool {
	if iv.Index == 0 && v == iv.Lo {
		return true
	}
	return v > iv.Lo && v <= iv.Hi
}

// Partition is an ordered sequence of contiguous fixed-width intervals
// covering exactly [0, Upper].
type Partition struct {
	Width float64    `json:"width"`
	Upper float64    `json:"upper"`
	Bins  []Interval `json:"bins"`
}

// NewPartition builds ceil(upper/width) contiguous bins over [0, upper].
// The last bin is closed at upper even when upper is not a multiple of
// the width.
func NewPartition(width, upper float64) (Partition, error) {
	if width <= 0 {
		return Partition{}, core.NewInvalidWidthError(width)
	}
	if upper < 0 {
		return Partition{}, core.NewValidationError("upper", "partition ceiling must be >= 0")
	}
	n := int(math.Ceil(upper / width))
	if n == 0 {
		n = 1 // degenerate upper == 0 still needs a bin for exact zeros
	}
	bins := make([]Interval, n)
	for i := 0; i < n; i++ {
		hi := float64(i+1) * width
		if hi > upper && upper > 0 {
			hi = upper
		}
		bins[i] = Interval{Index: i, Lo: float64(i) * width, Hi: hi}
	}
	return Partition{Width: width, Upper: upper, Bins: bins}, nil
}

// Locate returns the bin containing v. Values of exactly 0 land in the
// first bin; values above the ceiling are rejected.
func (p Partition) Locate(v float64) (Interval, error) {
	if v > p.Upper {
		return Interval{}, core.NewOutOfRangeError(v, p.Upper)
	}
	if v < 0 {
		return Interval{}, core.NewValidationError("value", "negative values must be clipped before binning")
	}
	if v == 0 {
		return p.Bins[0], nil
	}
	idx := int(math.Ceil(v/p.Width)) - 1
	if idx >= len(p.Bins) {
		idx = len(p.Bins) - 1
	}
	return p.Bins[idx], nil
}

// Cell is one aggregated (interval, category) group with its count.
type Cell struct {
	Interval Interval `json:"interval"`
	Category string   `json:"category"`
	Count    int      `json:"count"`
}

// CountTable maps (interval, category) pairs to occurrence counts.
// Combinations with no observed members are absent, not zero-rows.
// Cells are kept sorted by (interval index, category) so downstream
// fitting is deterministic.
type CountTable struct {
	Partition Partition `json:"partition"`
	Cells     []Cell    `json:"cells"`
}

// Total returns the sum of all cell counts.
func (t CountTable) Total() int {
	total := 0
	for _, c := range t.Cells {
		total += c.Count
	}
	return total
}

// Levels returns the distinct category labels in lexicographic order.
func (t CountTable) Levels() []string {
	seen := make(map[string]bool)
	for _, c := range t.Cells {
		seen[c.Category] = true
	}
	levels := make([]string, 0, len(seen))
	for lv := range seen {
		levels = append(levels, lv)
	}
	sort.Strings(levels)
	return levels
}

// LevelTotals returns the total count per category label.
func (t CountTable) LevelTotals() map[string]int {
	totals := make(map[string]int)
	for _, c := range t.Cells {
		totals[c.Category] += c.Count
	}
	return totals
}

package discretize

import (
	"sort"

	"countglm/domain/core"
	"countglm/domain/sample"
)

// Aggregate clips sanitized values below zero to zero, partitions
// [0, upper] into fixed-width bins, and counts occurrences per
// (bin, category) pair. The upper ceiling is normally the sanitizer's
// upper fence, reused so the partition spans exactly the retained
// range.
//
// Combinations with no members are absent from the result, not
// materialized as zero-count cells.
func Aggregate(values []float64, categories []string, width, upper float64) (sample.CountTable, error) {
	if len(values) != len(categories) {
		return sample.CountTable{}, core.NewValidationError("categories",
			"must be order-aligned with values")
	}

	partition, err := sample.NewPartition(width, upper)
	if err != nil {
		return sample.CountTable{}, err
	}

	type groupKey struct {
		bin      int
		category string
	}
	counts := make(map[groupKey]int)
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		iv, err := partition.Locate(v)
		if err != nil {
			return sample.CountTable{}, err
		}
		counts[groupKey{bin: iv.Index, category: categories[i]}]++
	}

	cells := make([]sample.Cell, 0, len(counts))
	for k, n := range counts {
		cells = append(cells, sample.Cell{
			Interval: partition.Bins[k.bin],
			Category: k.category,
			Count:    n,
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Interval.Index != cells[j].Interval.Index {
			return cells[i].Interval.Index < cells[j].Interval.Index
		}
		return cells[i].Category < cells[j].Category
	})

	return sample.CountTable{Partition: partition, Cells: cells}, nil
}

// AggregateRecords is Aggregate over a record sequence.
func AggregateRecords(records []sample.Record, width, upper float64) (sample.CountTable, error) {
	values, categories := sample.Split(records)
	return Aggregate(values, categories, width, upper)
}

package estimate

import (
	"sort"

	"github.com/ratewise/ratewise/internal/model"
)

// ComputeBaseline returns the median of the usable historical rates
// (final rate, else AI rate) or nil when none of them is a finite number.
func ComputeBaseline(records []model.HistoricalRecord) *float64 {
	rates := make([]float64, 0, len(records))
	for _, rec := range records {
		if rate, ok := rec.Rate(); ok {
			rates = append(rates, rate)
		}
	}
	if len(rates) == 0 {
		return nil
	}
	m := median(rates)
	return &m
}

// median sorts values in place and returns the middle element, or the
// mean of the two middle elements for an even count. values must be non-empty.
func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

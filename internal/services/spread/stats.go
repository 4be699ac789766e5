package spread

import (
	"math"
	"sort"

	"RollSpread/internal/domain/models"
)

// DefaultHistogramBins matches the histogram view.
const DefaultHistogramBins = 50

// Summarize computes the histogram view statistics over records, taking the
// latest value by date. ok is false when there are no records.
func Summarize(records []models.SpreadRecord, bins int) (models.SpreadStats, bool) {
	rows := append([]models.SpreadRecord(nil), records...)
	sortByDate(rows)
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Spread
	}
	return SummarizeValues(values, bins)
}

// SummarizeValues is Summarize over values already in date order. NaN and
// infinite values are ignored. The standard deviation is the sample (n-1)
// estimate and is 0 for a single value.
func SummarizeValues(values []float64, bins int) (models.SpreadStats, bool) {
	values = finite(values)
	n := len(values)
	if n == 0 {
		return models.SpreadStats{}, false
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	std := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range values {
			ss += (v - mean) * (v - mean)
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.SpreadStats{
		Count:     n,
		Latest:    values[n-1],
		Mean:      mean,
		Median:    median,
		StdDev:    std,
		Plus1Std:  mean + std,
		Minus1Std: mean - std,
		Plus2Std:  mean + 2*std,
		Minus2Std: mean - 2*std,
		Histogram: histogram(sorted, bins),
	}, true
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// histogram splits [min, max] into equal-width bins; the last bin includes max.
func histogram(sorted []float64, bins int) []models.HistogramBin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(sorted)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range sorted {
		idx := int((v - lo) / width)
		switch {
		case idx < 0:
			idx = 0
		case idx >= bins:
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

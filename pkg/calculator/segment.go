package calculator

import (
	"math"
	"sort"

	"clv-forecast/pkg/models"
)

// Quantile calcule le quantile q (0..1) par interpolation linéaire entre rangs
// (position q·(n−1)). values n'est pas modifié.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ComputeThresholds renvoie les 80e et 40e percentiles de la population.
func ComputeThresholds(values []float64) models.Thresholds {
	return models.Thresholds{
		High: Quantile(values, 0.8),
		Low:  Quantile(values, 0.4),
	}
}

// Classify attribue le segment. Une égalité avec un seuil va au segment inférieur.
func Classify(v float64, th models.Thresholds) models.Segment {
	switch {
	case v > th.High:
		return models.SegmentHigh
	case v > th.Low:
		return models.SegmentMedium
	default:
		return models.SegmentLow
	}
}

package report

import (
	"sort"

	"clv-forecast/pkg/models"
)

// TopN renvoie les n clients à plus forte valeur prédite (ordre décroissant,
// à égalité par identifiant).
func TopN(customers []models.ScoredCustomer, n int) []models.ScoredCustomer {
	if n <= 0 || len(customers) == 0 {
		return []models.ScoredCustomer{}
	}
	sorted := append([]models.ScoredCustomer(nil), customers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PredictedValue != sorted[j].PredictedValue {
			return sorted[i].PredictedValue > sorted[j].PredictedValue
		}
		return sorted[i].CustomerID < sorted[j].CustomerID
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Histogram répartit les valeurs en `bins` classes de largeur égale entre min et max.
// La dernière classe inclut le max.
func Histogram(values []float64, bins int) []models.HistogramBin {
	if bins <= 0 || len(values) == 0 {
		return []models.HistogramBin{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// Find renvoie le client id dans customers (trié par CustomerID).
func Find(customers []models.ScoredCustomer, id string) (models.ScoredCustomer, bool) {
	i := sort.Search(len(customers), func(i int) bool { return customers[i].CustomerID >= id })
	if i < len(customers) && customers[i].CustomerID == id {
		return customers[i], true
	}
	return models.ScoredCustomer{}, false
}

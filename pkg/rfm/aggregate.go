package rfm

import (
	"sort"
	"time"

	"clv-forecast/pkg/models"

	"github.com/shopspring/decimal"
)

// Result regroupe les résumés RFM et la fin de la période d'observation.
type Result struct {
	ObservationEnd time.Time
	Summaries      map[string]models.RFMSummary
}

// CustomerIDs renvoie les identifiants clients triés.
func (r *Result) CustomerIDs() []string {
	ids := make([]string, 0, len(r.Summaries))
	for id := range r.Summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aggregate réduit les transactions en un résumé RFM par client.
// La fin d'observation est la date maximale sur TOUTES les transactions.
func Aggregate(records []models.TransactionRecord, unit time.Duration) (*Result, error) {
	if len(records) == 0 {
		return nil, &models.DataError{Msg: "aucune transaction"}
	}
	if unit <= 0 {
		unit = 24 * time.Hour
	}

	// 1) fin d'observation + regroupement par client (ordre d'entrée conservé)
	var end time.Time
	groups := map[string][]models.TransactionRecord{}
	for i, rec := range records {
		if rec.CustomerID == "" {
			return nil, &models.DataError{Line: i + 1, Msg: "customer_id vide"}
		}
		if rec.Date.IsZero() {
			return nil, &models.DataError{Line: i + 1, Msg: "date manquante"}
		}
		if rec.Amount.IsNegative() {
			return nil, &models.DataError{Line: i + 1, Msg: "montant négatif"}
		}
		if rec.Date.After(end) {
			end = rec.Date
		}
		groups[rec.CustomerID] = append(groups[rec.CustomerID], rec)
	}

	// 2) un résumé par client
	out := make(map[string]models.RFMSummary, len(groups))
	for id, txs := range groups {
		out[id] = summarize(id, txs, end, unit)
	}
	return &Result{ObservationEnd: end, Summaries: out}, nil
}

func summarize(id string, txs []models.TransactionRecord, end time.Time, unit time.Duration) models.RFMSummary {
	// tri stable : à date égale, l'ordre d'entrée départage
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	first, last := txs[0].Date, txs[len(txs)-1].Date
	s := models.RFMSummary{
		CustomerID: id,
		Frequency:  len(txs) - 1,
		Recency:    elapsed(first, last, unit),
		T:          elapsed(first, end, unit),
	}
	if s.Frequency > 0 {
		// le premier achat est l'acquisition, pas une dépense répétée
		sum := decimal.Zero
		for _, tx := range txs[1:] {
			sum = sum.Add(tx.Amount)
		}
		s.MonetaryValue = sum.Div(decimal.NewFromInt(int64(s.Frequency))).InexactFloat64()
	}
	return s
}

// elapsed compte les unités entières entre deux dates tronquées à l'unité.
func elapsed(from, to time.Time, unit time.Duration) float64 {
	a := from.UTC().Truncate(unit)
	b := to.UTC().Truncate(unit)
	return float64(b.Sub(a) / unit)
}

// MonetaryFitInput renvoie les clients éligibles à l'ajustement du modèle monétaire
// (Frequency > 0 et MonetaryValue > 0), dans l'ordre des identifiants.
func MonetaryFitInput(r *Result) (ids []string, frequency, monetary []float64) {
	for _, id := range r.CustomerIDs() {
		s := r.Summaries[id]
		if s.Frequency > 0 && s.MonetaryValue > 0 {
			ids = append(ids, id)
			frequency = append(frequency, float64(s.Frequency))
			monetary = append(monetary, s.MonetaryValue)
		}
	}
	return ids, frequency, monetary
}

// FrequencyFitInput renvoie les séries (frequency, recency, T) de toute la population.
func FrequencyFitInput(r *Result) (frequency, recency, T []float64) {
	ids := r.CustomerIDs()
	frequency = make([]float64, 0, len(ids))
	recency = make([]float64, 0, len(ids))
	T = make([]float64, 0, len(ids))
	for _, id := range ids {
		s := r.Summaries[id]
		frequency = append(frequency, float64(s.Frequency))
		recency = append(recency, s.Recency)
		T = append(T, s.T)
	}
	return frequency, recency, T
}

package calculator

import (
	"context"
	"math"

	"clv-forecast/pkg/clvmodel"
	"clv-forecast/pkg/models"

	"github.com/schollz/progressbar/v3"
)

// CustomerLifetimeValue actualise les transactions attendues de chaque période :
//
//	Σ_{i=1..H} E[valeur] × (E[N(i·P)] − E[N((i−1)·P)]) / (1+d)^i
//
// P est la période convertie dans l'unité de Recency/T (cfg.PeriodUnits).
func CustomerLifetimeValue(s models.RFMSummary, fm clvmodel.FrequencyModel, mm clvmodel.MonetaryModel, cfg models.Config) float64 {
	x := float64(s.Frequency)
	value := mm.ExpectedValue(x, s.MonetaryValue)
	if value <= 0 {
		return 0
	}
	period, err := cfg.PeriodUnits()
	if err != nil {
		return 0
	}
	clv := 0.0
	prev := 0.0
	for i := 1; i <= cfg.HorizonPeriods; i++ {
		cum := fm.ExpectedTransactions(x, s.Recency, s.T, float64(i)*period)
		step := cum - prev
		if step < 0 {
			step = 0
		}
		if cum > prev {
			prev = cum
		}
		clv += value * step / math.Pow(1+cfg.DiscountRate, float64(i))
	}
	if math.IsNaN(clv) || math.IsInf(clv, 0) || clv < 0 {
		return 0
	}
	return clv
}

// ScoreAll score chaque client de ids. Les incohérences par client sont collectées
// comme ScoringError sans interrompre le lot ; seule l'annulation du contexte l'interrompt.
func ScoreAll(
	ctx context.Context,
	ids []string,
	summaries map[string]models.RFMSummary,
	fm clvmodel.FrequencyModel,
	mm clvmodel.MonetaryModel,
	cfg models.Config,
	bar *progressbar.ProgressBar,
) (map[string]float64, []models.ScoringError, error) {
	scores := make(map[string]float64, len(ids))
	skipped := []models.ScoringError{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		s, ok := summaries[id]
		if !ok {
			skipped = append(skipped, models.ScoringError{CustomerID: id, Reason: "aucun résumé RFM"})
			continue
		}
		if s.Frequency > 0 && s.MonetaryValue <= 0 {
			skipped = append(skipped, models.ScoringError{CustomerID: id, Reason: "achats répétés avec valeur monétaire <= 0"})
			continue
		}
		scores[id] = CustomerLifetimeValue(s, fm, mm, cfg)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return scores, skipped, nil
}

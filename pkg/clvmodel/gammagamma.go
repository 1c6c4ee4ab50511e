package clvmodel

import (
	"math"

	"clv-forecast/pkg/models"
)

// GammaGammaFitter ajuste le modèle Gamma-Gamma de la valeur par transaction.
// Les entrées doivent toutes avoir frequency > 0 et monetary > 0.
type GammaGammaFitter struct {
	Penalizer float64
}

// GammaGammaModel est un modèle Gamma-Gamma ajusté.
type GammaGammaModel struct {
	P, Q, V float64
}

func (f GammaGammaFitter) Fit(frequency, monetary []float64) (MonetaryModel, error) {
	if err := checkSeries("gammagamma", frequency, monetary); err != nil {
		return nil, err
	}
	for i := range frequency {
		if frequency[i] <= 0 || monetary[i] <= 0 {
			return nil, &models.FitError{Model: "gammagamma", Msg: "frequency et monetary doivent être > 0"}
		}
	}
	params, err := minimize("gammagamma", 3, func(p []float64) float64 {
		return gammaGammaNegLogLikelihood(p, frequency, monetary) + penalty(f.Penalizer, p)
	})
	if err != nil {
		return nil, err
	}
	return &GammaGammaModel{P: params[0], Q: params[1], V: params[2]}, nil
}

func gammaGammaNegLogLikelihood(p, x, m []float64) float64 {
	pp, q, v := p[0], p[1], p[2]
	lgQ, _ := math.Lgamma(q)
	total := 0.0
	for i := range x {
		px := pp * x[i]
		lgPXQ, _ := math.Lgamma(px + q)
		lgPX, _ := math.Lgamma(px)
		total += lgPXQ - lgPX - lgQ + q*math.Log(v) + (px-1)*math.Log(m[i]) +
			px*math.Log(x[i]) - (px+q)*math.Log(x[i]*m[i]+v)
	}
	return -total / float64(len(x))
}

// ExpectedValue est la valeur moyenne conditionnelle attendue d'une transaction.
// Sans achat répété, c'est la moyenne de la population.
func (m *GammaGammaModel) ExpectedValue(x, monetary float64) float64 {
	population := m.P * m.V / (m.Q - 1)
	w := m.P * x / (m.P*x + m.Q - 1)
	v := (1-w)*population + w*monetary
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Params expose les paramètres ajustés.
func (m *GammaGammaModel) Params() map[string]float64 {
	return map[string]float64{"p": m.P, "q": m.Q, "v": m.V}
}

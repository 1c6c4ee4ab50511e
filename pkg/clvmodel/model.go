// Package clvmodel définit le contrat des modèles statistiques de CLV
// (fréquence d'achat et valeur monétaire) et leurs implémentations par défaut.
package clvmodel

import (
	"fmt"
	"math"

	"clv-forecast/pkg/models"

	"gonum.org/v1/gonum/optimize"
)

// FrequencyFitter ajuste un modèle de fréquence d'achat sur la population entière.
type FrequencyFitter interface {
	Fit(frequency, recency, T []float64) (FrequencyModel, error)
}

// FrequencyModel prédit le nombre attendu de transactions sur [0, t] après la fin d'observation.
type FrequencyModel interface {
	ExpectedTransactions(frequency, recency, T, t float64) float64
}

// MonetaryFitter ajuste un modèle de valeur monétaire sur les clients répétés.
type MonetaryFitter interface {
	Fit(frequency, monetary []float64) (MonetaryModel, error)
}

// MonetaryModel prédit la valeur moyenne attendue d'une transaction future.
type MonetaryModel interface {
	ExpectedValue(frequency, monetary float64) float64
}

// Parameterized est implémenté par les modèles qui exposent leurs paramètres ajustés.
type Parameterized interface {
	Params() map[string]float64
}

// ParamsOf renvoie les paramètres d'un modèle, ou nil.
func ParamsOf(m any) map[string]float64 {
	if p, ok := m.(Parameterized); ok {
		return p.Params()
	}
	return nil
}

func checkSeries(model string, series ...[]float64) error {
	if len(series) == 0 || len(series[0]) == 0 {
		return &models.FitError{Model: model, Msg: "entrée vide"}
	}
	for _, s := range series[1:] {
		if len(s) != len(series[0]) {
			return &models.FitError{Model: model, Msg: fmt.Sprintf("longueurs incohérentes (%d vs %d)", len(s), len(series[0]))}
		}
	}
	for _, s := range series {
		for i, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return &models.FitError{Model: model, Msg: fmt.Sprintf("valeur invalide %v à l'index %d", v, i)}
			}
		}
	}
	return nil
}

const (
	// maxLogParam borne les paramètres en espace log pour éviter les débordements.
	maxLogParam = 30
	// rejected remplace une vraisemblance non finie pendant l'optimisation.
	rejected = 1e100
)

// minimize cherche le minimum de nll sur des paramètres en espace log (Nelder-Mead)
// et renvoie les paramètres exponentiés.
func minimize(model string, dim int, nll func(params []float64) float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			params := make([]float64, len(x))
			for i, v := range x {
				if math.Abs(v) > maxLogParam {
					return rejected
				}
				params[i] = math.Exp(v)
			}
			f := nll(params)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return rejected
			}
			return f
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}
	x0 := make([]float64, dim) // paramètres initiaux = 1
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, &models.FitError{Model: model, Msg: "optimisation impossible", Err: err}
	}
	if res.F >= rejected || math.IsNaN(res.F) {
		return nil, &models.FitError{Model: model, Msg: "vraisemblance non finie", Err: err}
	}
	out := make([]float64, dim)
	for i, v := range res.X {
		out[i] = math.Exp(v)
	}
	return out, nil
}

func penalty(coef float64, params []float64) float64 {
	if coef == 0 {
		return 0
	}
	s := 0.0
	for _, p := range params {
		s += p * p
	}
	return coef * s
}

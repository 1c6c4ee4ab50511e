package clvmodel

import (
	"math"

	"clv-forecast/pkg/models"

	"gonum.org/v1/gonum/mathext"
)

// BetaGeoFitter ajuste le modèle BG/NBD par maximum de vraisemblance.
type BetaGeoFitter struct {
	Penalizer float64
}

// BetaGeoModel est un modèle BG/NBD ajusté.
type BetaGeoModel struct {
	R, Alpha, A, B float64
}

func (f BetaGeoFitter) Fit(frequency, recency, T []float64) (FrequencyModel, error) {
	if err := checkSeries("bgnbd", frequency, recency, T); err != nil {
		return nil, err
	}
	for i := range T {
		if recency[i] > T[i] {
			return nil, &models.FitError{Model: "bgnbd", Msg: "recency > T"}
		}
	}

	// mise à l'échelle de T pour stabiliser l'optimisation ; alpha est rescalé ensuite
	maxT := 0.0
	for _, v := range T {
		maxT = math.Max(maxT, v)
	}
	scale := 1.0
	if maxT > 0 {
		scale = 10 / maxT
	}
	rs := make([]float64, len(recency))
	ts := make([]float64, len(T))
	for i := range T {
		rs[i] = recency[i] * scale
		ts[i] = T[i] * scale
	}

	params, err := minimize("bgnbd", 4, func(p []float64) float64 {
		return bgnbdNegLogLikelihood(p, frequency, rs, ts) + penalty(f.Penalizer, p)
	})
	if err != nil {
		return nil, err
	}
	return &BetaGeoModel{R: params[0], Alpha: params[1] / scale, A: params[2], B: params[3]}, nil
}

// bgnbdNegLogLikelihood renvoie la log-vraisemblance négative moyenne.
func bgnbdNegLogLikelihood(p, x, tx, T []float64) float64 {
	r, alpha, a, b := p[0], p[1], p[2], p[3]
	lgR, _ := math.Lgamma(r)
	lgAB, _ := math.Lgamma(a + b)
	lgB, _ := math.Lgamma(b)
	total := 0.0
	for i := range x {
		lgRX, _ := math.Lgamma(r + x[i])
		lgBX, _ := math.Lgamma(b + x[i])
		lgABX, _ := math.Lgamma(a + b + x[i])
		a1 := lgRX - lgR + r*math.Log(alpha)
		a2 := lgAB + lgBX - lgB - lgABX
		a3 := -(r + x[i]) * math.Log(alpha+T[i])
		ll := a1 + a2
		if x[i] > 0 {
			a4 := math.Log(a) - math.Log(b+x[i]-1) - (r+x[i])*math.Log(alpha+tx[i])
			ll += logAddExp(a3, a4)
		} else {
			ll += a3
		}
		total += ll
	}
	return -total / float64(len(x))
}

// ExpectedTransactions est l'espérance conditionnelle du nombre d'achats sur (T, T+t].
func (m *BetaGeoModel) ExpectedTransactions(x, tx, T, t float64) float64 {
	if t <= 0 {
		return 0
	}
	r, alpha, a, b := m.R, m.Alpha, m.A, m.B
	hA := r + x
	hB := b + x
	hC := a + b + x - 1
	z := t / (alpha + T + t)

	first := (a + b + x - 1) / (a - 1)
	second := 1 - math.Exp(logHyp2F1(hA, hB, hC, z)+(r+x)*math.Log((alpha+T)/(alpha+t+T)))
	num := first * second
	den := 1.0
	if x > 0 {
		den += (a / (b + x - 1)) * math.Pow((alpha+T)/(alpha+tx), r+x)
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Params expose les paramètres ajustés.
func (m *BetaGeoModel) Params() map[string]float64 {
	return map[string]float64{"r": m.R, "alpha": m.Alpha, "a": m.A, "b": m.B}
}

// logHyp2F1 calcule log 2F1(a,b;c;z), avec la transformation d'Euler en repli.
func logHyp2F1(a, b, c, z float64) float64 {
	if v := mathext.Hypergeo(a, b, c, z); v > 0 && !math.IsInf(v, 0) {
		return math.Log(v)
	}
	v := mathext.Hypergeo(c-a, c-b, c, z)
	return math.Log(v) + (c-a-b)*math.Log1p(-z)
}

func logAddExp(x, y float64) float64 {
	m := math.Max(x, y)
	if math.IsInf(m, -1) {
		return m
	}
	return m + math.Log(math.Exp(x-m)+math.Exp(y-m))
}

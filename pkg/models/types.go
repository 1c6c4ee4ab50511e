package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/*
LOAD → types simples pour les transactions brutes, quelle que soit la source (CSV, MySQL, Postgres).
*/

// TransactionRecord représente un achat tel qu'il est lu depuis la source.
type TransactionRecord struct {
	CustomerID string
	Date       time.Time
	Amount     decimal.Decimal
}

/*
COMPUTE → résumés RFM et scores CLV par client
*/

// RFMSummary contient les statistiques Recency/Frequency/T/Monetary d'un client.
// Recency et T sont exprimés en unités de temps entières (jour par défaut).
type RFMSummary struct {
	CustomerID    string  `json:"customer_id"`
	Frequency     int     `json:"frequency"`      // achats répétés (total - 1)
	Recency       float64 `json:"recency"`        // dernier achat - premier achat
	T             float64 `json:"T"`              // fin d'observation - premier achat
	MonetaryValue float64 `json:"monetary_value"` // moyenne des achats répétés, 0 si Frequency == 0
}

// Segment est le palier attribué à un client selon son rang de CLV prédite.
type Segment string

const (
	SegmentHigh   Segment = "HIGH"
	SegmentMedium Segment = "MEDIUM"
	SegmentLow    Segment = "LOW"
)

// Recommendation renvoie l'action marketing associée au segment.
func (s Segment) Recommendation() string {
	switch s {
	case SegmentHigh:
		return "High-Value Customer: Target with VIP offers, loyalty programs, and personalized communication."
	case SegmentMedium:
		return "Medium-Value Customer: Nurture with targeted email campaigns and re-engagement offers."
	default:
		return "Low-Value/At-Risk Customer: Include in general marketing but avoid high-cost acquisition/retention efforts."
	}
}

// ScoredCustomer étend le résumé RFM avec la valeur prédite et le segment.
type ScoredCustomer struct {
	RFMSummary
	PredictedValue float64 `json:"predicted_value"`
	Segment        Segment `json:"segment"`
}

// Thresholds contient les quantiles de segmentation de la population.
type Thresholds struct {
	High float64 `json:"high"` // 80e percentile
	Low  float64 `json:"low"`  // 40e percentile
}

// HistogramBin est une classe de l'histogramme des valeurs prédites.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Report est le rapport complet d'une exécution du pipeline.
type Report struct {
	RunID           uuid.UUID          `json:"run_id"`
	GeneratedAt     time.Time          `json:"generated_at"`
	ObservationEnd  time.Time          `json:"observation_period_end"`
	Config          Config             `json:"config"`
	Transactions    int                `json:"transactions"`
	FrequencyParams map[string]float64 `json:"frequency_model"`
	MonetaryParams  map[string]float64 `json:"monetary_model"`
	MonetaryFitSize int                `json:"monetary_fit_customers"`
	Thresholds      Thresholds         `json:"thresholds"`
	Customers       []ScoredCustomer   `json:"customers"` // triés par CustomerID
	Skipped         []ScoringError     `json:"skipped"`
	SegmentCounts   map[Segment]int    `json:"segment_counts"`
	Top             []ScoredCustomer   `json:"top_customers"`
	Histogram       []HistogramBin     `json:"histogram"`
}

/*
CONFIG → paramètres du calcul
*/

// TimeUnit est l'unité dans laquelle Recency, T et l'horizon sont exprimés.
type TimeUnit string

const (
	UnitDay  TimeUnit = "D"
	UnitWeek TimeUnit = "W"
)

// Duration renvoie la durée d'une unité.
func (u TimeUnit) Duration() (time.Duration, error) {
	switch u {
	case UnitDay, "":
		return 24 * time.Hour, nil
	case UnitWeek:
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unité de temps inconnue %q (D ou W)", string(u))
}

// Config contient les paramètres passés au pipeline de calcul.
type Config struct {
	TimeUnit       TimeUnit `json:"time_unit"`
	HorizonPeriods int      `json:"horizon_periods"` // nombre de périodes futures (12 mois)
	PeriodDays     float64  `json:"period_days"`     // longueur d'une période en jours (30), quelle que soit l'unité
	DiscountRate   float64  `json:"discount_rate"`   // par période
	Penalizer      float64  `json:"penalizer"`
	TopN           int      `json:"top_n"`
	HistogramBins  int      `json:"histogram_bins"`
	Verbose        bool     `json:"-"`
}

// DefaultConfig renvoie la configuration de référence : CLV à 12 mois, taux 1 %.
func DefaultConfig() Config {
	return Config{
		TimeUnit:       UnitDay,
		HorizonPeriods: 12,
		PeriodDays:     30,
		DiscountRate:   0.01,
		Penalizer:      0,
		TopN:           10,
		HistogramBins:  50,
	}
}

// PeriodUnits convertit la longueur d'une période dans l'unité de Recency/T :
// 30 jours valent 30 en D et 30/7 en W.
func (c Config) PeriodUnits() (float64, error) {
	unit, err := c.TimeUnit.Duration()
	if err != nil {
		return 0, err
	}
	return c.PeriodDays * float64(24*time.Hour) / float64(unit), nil
}

// Validate vérifie la cohérence des paramètres.
func (c Config) Validate() error {
	if _, err := c.TimeUnit.Duration(); err != nil {
		return err
	}
	if c.HorizonPeriods <= 0 {
		return fmt.Errorf("horizon_periods doit être > 0")
	}
	if c.PeriodDays <= 0 {
		return fmt.Errorf("period_days doit être > 0")
	}
	if c.DiscountRate < 0 {
		return fmt.Errorf("discount_rate doit être >= 0")
	}
	if c.Penalizer < 0 {
		return fmt.Errorf("penalizer doit être >= 0")
	}
	if c.TopN < 0 || c.HistogramBins < 0 {
		return fmt.Errorf("top_n et histogram_bins doivent être >= 0")
	}
	return nil
}

package calculator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clv-forecast/pkg/clvmodel"
	"clv-forecast/pkg/models"
	"clv-forecast/pkg/report"
	"clv-forecast/pkg/rfm"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Pipeline enchaîne agrégation RFM → ajustement des modèles → score CLV → segmentation.
type Pipeline struct {
	frequency clvmodel.FrequencyFitter
	monetary  clvmodel.MonetaryFitter
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline crée un pipeline avec les ajusteurs fournis.
func NewPipeline(frequency clvmodel.FrequencyFitter, monetary clvmodel.MonetaryFitter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		frequency: frequency,
		monetary:  monetary,
		logger:    logger,
		now:       time.Now,
	}
}

// Run exécute le pipeline avec les modèles BG/NBD et Gamma-Gamma.
func Run(ctx context.Context, records []models.TransactionRecord, cfg models.Config, logger *zap.Logger) (*models.Report, error) {
	p := NewPipeline(
		clvmodel.BetaGeoFitter{Penalizer: cfg.Penalizer},
		clvmodel.GammaGammaFitter{Penalizer: cfg.Penalizer},
		logger,
	)
	return p.Run(ctx, records, cfg)
}

func (p *Pipeline) Run(ctx context.Context, records []models.TransactionRecord, cfg models.Config) (*models.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	unit, _ := cfg.TimeUnit.Duration()

	// 1) RFM
	agg, err := rfm.Aggregate(records, unit)
	if err != nil {
		return nil, fmt.Errorf("rfm: %w", err)
	}
	p.logger.Info("résumés RFM calculés",
		zap.Int("transactions", len(records)),
		zap.Int("clients", len(agg.Summaries)),
		zap.Time("observation_end", agg.ObservationEnd),
	)

	// 2) modèles
	freq, rec, T := rfm.FrequencyFitInput(agg)
	fm, err := p.frequency.Fit(freq, rec, T)
	if err != nil {
		return nil, fmt.Errorf("modèle de fréquence: %w", err)
	}
	ids, mFreq, mVal := rfm.MonetaryFitInput(agg)
	if len(ids) == 0 {
		return nil, &models.FitError{Model: "monetary", Msg: "aucun client avec achats répétés et valeur > 0"}
	}
	mm, err := p.monetary.Fit(mFreq, mVal)
	if err != nil {
		return nil, fmt.Errorf("modèle monétaire: %w", err)
	}
	p.logger.Info("modèles ajustés",
		zap.Any("frequency_params", clvmodel.ParamsOf(fm)),
		zap.Any("monetary_params", clvmodel.ParamsOf(mm)),
		zap.Int("monetary_fit_customers", len(ids)),
	)

	// 3) score
	customerIDs := agg.CustomerIDs()
	var bar *progressbar.ProgressBar
	if cfg.Verbose {
		bar = progressbar.Default(int64(len(customerIDs)), "scoring")
	} else {
		bar = progressbar.DefaultSilent(int64(len(customerIDs)))
	}
	scores, skipped, err := ScoreAll(ctx, customerIDs, agg.Summaries, fm, mm, cfg, bar)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		p.logger.Warn("client ignoré", zap.String("customer_id", s.CustomerID), zap.String("reason", s.Reason))
	}

	// 4) segmentation
	values := make([]float64, 0, len(scores))
	for _, id := range customerIDs {
		if v, ok := scores[id]; ok {
			values = append(values, v)
		}
	}
	th := ComputeThresholds(values)

	customers := make([]models.ScoredCustomer, 0, len(scores))
	counts := map[models.Segment]int{models.SegmentHigh: 0, models.SegmentMedium: 0, models.SegmentLow: 0}
	for _, id := range customerIDs {
		v, ok := scores[id]
		if !ok {
			continue
		}
		seg := Classify(v, th)
		counts[seg]++
		customers = append(customers, models.ScoredCustomer{
			RFMSummary:     agg.Summaries[id],
			PredictedValue: v,
			Segment:        seg,
		})
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].CustomerID < skipped[j].CustomerID })

	rep := &models.Report{
		RunID:           uuid.New(),
		GeneratedAt:     p.now().UTC(),
		ObservationEnd:  agg.ObservationEnd,
		Config:          cfg,
		Transactions:    len(records),
		FrequencyParams: clvmodel.ParamsOf(fm),
		MonetaryParams:  clvmodel.ParamsOf(mm),
		MonetaryFitSize: len(ids),
		Thresholds:      th,
		Customers:       customers,
		Skipped:         skipped,
		SegmentCounts:   counts,
		Top:             report.TopN(customers, cfg.TopN),
		Histogram:       report.Histogram(values, cfg.HistogramBins),
	}
	p.logger.Info("CLV calculée",
		zap.String("run_id", rep.RunID.String()),
		zap.Int("scored", len(customers)),
		zap.Int("skipped", len(skipped)),
		zap.Float64("high_threshold", th.High),
		zap.Float64("low_threshold", th.Low),
	)
	return rep, nil
}

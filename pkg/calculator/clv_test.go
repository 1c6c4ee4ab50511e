package calculator

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"clv-forecast/pkg/clvmodel"
	"clv-forecast/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// linearModel prédit (frequency+1)/T transactions par unité de temps.
type linearModel struct{}

func (linearModel) ExpectedTransactions(x, tx, T, t float64) float64 {
	return (x + 1) / (T + 1) * t
}

type stubFrequencyFitter struct{ calls int }

func (f *stubFrequencyFitter) Fit(x, tx, T []float64) (clvmodel.FrequencyModel, error) {
	f.calls++
	if len(x) == 0 {
		return nil, &models.FitError{Model: "stub", Msg: "entrée vide"}
	}
	return linearModel{}, nil
}

// meanModel renvoie la valeur observée, ou 10 sans achat répété.
type meanModel struct{}

func (meanModel) ExpectedValue(x, m float64) float64 {
	if x == 0 {
		return 10
	}
	return m
}

type recordingMonetaryFitter struct {
	frequency, monetary []float64
}

func (f *recordingMonetaryFitter) Fit(x, m []float64) (clvmodel.MonetaryModel, error) {
	f.frequency, f.monetary = x, m
	return meanModel{}, nil
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tx(id string, day int, amount string) models.TransactionRecord {
	return models.TransactionRecord{CustomerID: id, Date: day0.AddDate(0, 0, day), Amount: decimal.RequireFromString(amount)}
}

func store() []models.TransactionRecord {
	return []models.TransactionRecord{
		tx("A", 0, "10"), tx("A", 10, "20"), tx("A", 20, "30"),
		tx("B", 15, "5"),
		tx("C", 2, "8"), tx("C", 4, "12"),
		tx("D", 1, "50"), tx("D", 3, "40"), tx("D", 5, "60"), tx("D", 19, "70"),
		tx("E", 18, "3"),
		tx("F", 5, "1"), tx("F", 6, "2"),
	}
}

func newTestPipeline(mon *recordingMonetaryFitter) *Pipeline {
	p := NewPipeline(&stubFrequencyFitter{}, mon, zap.NewNop())
	p.now = func() time.Time { return day0 }
	return p
}

func TestPipelineRun_ReportShape(t *testing.T) {
	mon := &recordingMonetaryFitter{}
	rep, err := newTestPipeline(mon).Run(context.Background(), store(), models.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Customers) != 6 || len(rep.Skipped) != 0 {
		t.Fatalf("customers=%d skipped=%d", len(rep.Customers), len(rep.Skipped))
	}
	if !rep.ObservationEnd.Equal(day0.AddDate(0, 0, 20)) {
		t.Fatalf("observation end = %v", rep.ObservationEnd)
	}
	total := 0
	for _, n := range rep.SegmentCounts {
		total += n
	}
	if total != len(rep.Customers) {
		t.Fatalf("segments cover %d of %d customers", total, len(rep.Customers))
	}
	for i := 1; i < len(rep.Customers); i++ {
		if rep.Customers[i-1].CustomerID >= rep.Customers[i].CustomerID {
			t.Fatal("customers not sorted by id")
		}
	}
	if len(rep.Top) != 6 || rep.Top[0].PredictedValue < rep.Top[5].PredictedValue {
		t.Fatalf("top not ordered: %+v", rep.Top)
	}
}

func TestPipelineRun_MonetaryFitExcludesSingleBuyers(t *testing.T) {
	mon := &recordingMonetaryFitter{}
	rep, err := newTestPipeline(mon).Run(context.Background(), store(), models.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A, C, D, F ont des achats répétés ; B et E non
	if len(mon.frequency) != 4 || rep.MonetaryFitSize != 4 {
		t.Fatalf("monetary fit size = %d", len(mon.frequency))
	}
	for _, f := range mon.frequency {
		if f == 0 {
			t.Fatal("frequency 0 customer reached the monetary fit")
		}
	}
	want := []float64{25, 12, 170.0 / 3, 2}
	for i, m := range mon.monetary {
		if math.Abs(m-want[i]) > 1e-9 {
			t.Fatalf("monetary input = %v, want %v", mon.monetary, want)
		}
	}
}

func TestPipelineRun_Idempotent(t *testing.T) {
	p := newTestPipeline(&recordingMonetaryFitter{})
	first, err := p.Run(context.Background(), store(), models.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Run(context.Background(), store(), models.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Customers, second.Customers) {
		t.Fatal("customers differ between runs")
	}
	if first.Thresholds != second.Thresholds {
		t.Fatal("thresholds differ between runs")
	}
}

func TestPipelineRun_EmptyStoreIsDataError(t *testing.T) {
	_, err := newTestPipeline(&recordingMonetaryFitter{}).Run(context.Background(), nil, models.DefaultConfig())
	var de *models.DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestPipelineRun_NoRepeatBuyersIsFitError(t *testing.T) {
	records := []models.TransactionRecord{tx("A", 0, "1"), tx("B", 3, "2")}
	_, err := newTestPipeline(&recordingMonetaryFitter{}).Run(context.Background(), records, models.DefaultConfig())
	var fe *models.FitError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FitError, got %v", err)
	}
}

func TestPipelineRun_ZeroSpendRepeatBuyerSkipped(t *testing.T) {
	records := append(store(), tx("Z", 1, "4"), tx("Z", 2, "0"))
	rep, err := newTestPipeline(&recordingMonetaryFitter{}).Run(context.Background(), records, models.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Skipped) != 1 || rep.Skipped[0].CustomerID != "Z" {
		t.Fatalf("skipped = %+v", rep.Skipped)
	}
	for _, c := range rep.Customers {
		if c.CustomerID == "Z" {
			t.Fatal("skipped customer present in report")
		}
	}
}

func TestPipelineRun_InvalidConfig(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.DiscountRate = -1
	if _, err := newTestPipeline(&recordingMonetaryFitter{}).Run(context.Background(), store(), cfg); err == nil {
		t.Fatal("expected error for negative discount rate")
	}
}

func TestPipelineRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestPipeline(&recordingMonetaryFitter{}).Run(ctx, store(), models.DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// horizonRecorder retient le plus grand horizon demandé au modèle de fréquence.
type horizonRecorder struct{ maxT float64 }

func (m *horizonRecorder) ExpectedTransactions(x, tx, T, t float64) float64 {
	if t > m.maxT {
		m.maxT = t
	}
	return linearModel{}.ExpectedTransactions(x, tx, T, t)
}

type recordingFrequencyFitter struct{ model *horizonRecorder }

func (f *recordingFrequencyFitter) Fit(x, tx, T []float64) (clvmodel.FrequencyModel, error) {
	return f.model, nil
}

func runWithUnit(t *testing.T, unit models.TimeUnit) float64 {
	t.Helper()
	freq := &recordingFrequencyFitter{model: &horizonRecorder{}}
	p := NewPipeline(freq, &recordingMonetaryFitter{}, zap.NewNop())
	cfg := models.DefaultConfig()
	cfg.TimeUnit = unit
	if _, err := p.Run(context.Background(), store(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return freq.model.maxT
}

func TestPipelineRun_HorizonInDays(t *testing.T) {
	if got := runWithUnit(t, models.UnitDay); math.Abs(got-360) > 1e-9 {
		t.Fatalf("max horizon = %v days, want 360", got)
	}
}

func TestPipelineRun_HorizonInWeeksStaysTwelveMonths(t *testing.T) {
	got := runWithUnit(t, models.UnitWeek)
	if math.Abs(got-360.0/7) > 1e-9 {
		t.Fatalf("max horizon = %v weeks, want %v", got, 360.0/7)
	}
	if got < 50 || got > 53 {
		t.Fatalf("max horizon = %v weeks, not about one year", got)
	}
}

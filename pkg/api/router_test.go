package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"clv-forecast/pkg/api/handlers"
	"clv-forecast/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func sampleReport() *models.Report {
	mk := func(id string, v float64, seg models.Segment) models.ScoredCustomer {
		return models.ScoredCustomer{RFMSummary: models.RFMSummary{CustomerID: id}, PredictedValue: v, Segment: seg}
	}
	customers := []models.ScoredCustomer{
		mk("a", 1, models.SegmentLow),
		mk("b", 50, models.SegmentHigh),
		mk("c", 10, models.SegmentMedium),
	}
	cfg := models.DefaultConfig()
	cfg.TopN = 2
	return &models.Report{
		RunID:     uuid.New(),
		Config:    cfg,
		Customers: customers,
		Skipped:   []models.ScoringError{{CustomerID: "z", Reason: "bad"}},
	}
}

func newApp(refresh handlers.RefreshFunc) (*handlers.ReportHandler, func(method, path string) (int, []byte)) {
	h := handlers.NewReportHandler(sampleReport(), refresh, zap.NewNop())
	app := SetupRouter(h, zap.NewNop())
	return h, func(method, path string) (int, []byte) {
		resp, err := app.Test(httptest.NewRequest(method, path, nil))
		if err != nil {
			panic(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, body
	}
}

func TestGetCustomer_Found(t *testing.T) {
	_, do := newApp(nil)
	code, body := do("GET", "/api/v1/customers/b")
	if code != 200 {
		t.Fatalf("status %d: %s", code, body)
	}
	var got struct {
		Customer       models.ScoredCustomer `json:"customer"`
		Recommendation string                `json:"recommendation"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Customer.Segment != models.SegmentHigh || got.Recommendation != models.SegmentHigh.Recommendation() {
		t.Fatalf("got %+v", got)
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	_, do := newApp(nil)
	if code, _ := do("GET", "/api/v1/customers/nope"); code != 404 {
		t.Fatalf("status %d, want 404", code)
	}
}

func TestGetCustomer_Skipped(t *testing.T) {
	_, do := newApp(nil)
	if code, _ := do("GET", "/api/v1/customers/z"); code != 422 {
		t.Fatalf("status %d, want 422", code)
	}
}

func TestTopCustomers_DefaultLimit(t *testing.T) {
	_, do := newApp(nil)
	code, body := do("GET", "/api/v1/customers/top")
	if code != 200 {
		t.Fatalf("status %d", code)
	}
	var got []models.ScoredCustomer
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].CustomerID != "b" || got[1].CustomerID != "c" {
		t.Fatalf("got %+v", got)
	}
}

func TestTopCustomers_BadLimit(t *testing.T) {
	_, do := newApp(nil)
	if code, _ := do("GET", "/api/v1/customers/top?limit=0"); code != 400 {
		t.Fatalf("status %d, want 400", code)
	}
}

func TestRefresh_ReplacesReport(t *testing.T) {
	next := sampleReport()
	next.Customers = next.Customers[:1]
	_, do := newApp(func(ctx context.Context) (*models.Report, error) { return next, nil })
	if code, body := do("POST", "/api/v1/report/refresh"); code != 200 {
		t.Fatalf("status %d: %s", code, body)
	}
	code, body := do("GET", "/api/v1/report")
	if code != 200 {
		t.Fatalf("status %d", code)
	}
	var got models.Report
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != next.RunID || len(got.Customers) != 1 {
		t.Fatalf("report not replaced: %+v", got)
	}
}

func TestRefresh_FailureKeepsReport(t *testing.T) {
	_, do := newApp(func(ctx context.Context) (*models.Report, error) { return nil, errors.New("boom") })
	if code, _ := do("POST", "/api/v1/report/refresh"); code != 500 {
		t.Fatalf("status %d, want 500", code)
	}
	if code, _ := do("GET", "/api/v1/customers/a"); code != 200 {
		t.Fatalf("status %d, want 200", code)
	}
}

func TestRefresh_NotConfigured(t *testing.T) {
	_, do := newApp(nil)
	if code, _ := do("POST", "/api/v1/report/refresh"); code != 501 {
		t.Fatalf("status %d, want 501", code)
	}
}

package calculator

import (
	"math"
	"testing"

	"clv-forecast/pkg/models"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	if got := Quantile(values, 0.8); math.Abs(got-4.2) > 1e-12 {
		t.Fatalf("p80 = %v, want 4.2", got)
	}
	if got := Quantile(values, 0.4); math.Abs(got-2.6) > 1e-12 {
		t.Fatalf("p40 = %v, want 2.6", got)
	}
	if values[0] != 5 {
		t.Fatal("input was sorted in place")
	}
}

func TestQuantile_SingleValue(t *testing.T) {
	if got := Quantile([]float64{7}, 0.8); got != 7 {
		t.Fatalf("got %v, want 7", got)
	}
}

func TestClassify_BoundariesGoLower(t *testing.T) {
	th := models.Thresholds{High: 10, Low: 4}
	cases := map[float64]models.Segment{
		10.0001: models.SegmentHigh,
		10:      models.SegmentMedium,
		4.0001:  models.SegmentMedium,
		4:       models.SegmentLow,
		0:       models.SegmentLow,
	}
	for v, want := range cases {
		if got := Classify(v, th); got != want {
			t.Fatalf("Classify(%v) = %s, want %s", v, got, want)
		}
	}
}

func TestSegmentation_PartitionsPopulation(t *testing.T) {
	values := []float64{1, 1, 1, 2, 3, 5, 8, 13, 21, 34}
	th := ComputeThresholds(values)
	counts := map[models.Segment]int{}
	for _, v := range values {
		counts[Classify(v, th)]++
	}
	if counts[models.SegmentHigh]+counts[models.SegmentMedium]+counts[models.SegmentLow] != len(values) {
		t.Fatalf("counts = %v", counts)
	}
	if counts[models.SegmentHigh] != 2 {
		t.Fatalf("high = %d, want 2", counts[models.SegmentHigh])
	}
}

func TestSegmentation_AllEqual(t *testing.T) {
	th := ComputeThresholds([]float64{3, 3, 3})
	if Classify(3, th) != models.SegmentLow {
		t.Fatal("ties at equal thresholds must be LOW")
	}
}

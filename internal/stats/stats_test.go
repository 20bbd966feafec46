package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightedMean_AllPresent(t *testing.T) {
	got := WeightedMean([]*float64{F(1), F(0)}, []float64{0.6, 0.4})
	if got == nil {
		t.Fatal("expected a value, got nil")
	}
	if !almostEqual(*got, 0.6) {
		t.Errorf("got %v, want 0.6", *got)
	}
}

func TestWeightedMean_SkipsAbsent(t *testing.T) {
	// The absent value drops out together with its weight, so the single
	// present value carries the whole result.
	got := WeightedMean([]*float64{F(0.8), nil}, []float64{0.6, 0.4})
	if got == nil {
		t.Fatal("expected a value, got nil")
	}
	if !almostEqual(*got, 0.8) {
		t.Errorf("got %v, want 0.8", *got)
	}
}

func TestWeightedMean_AllAbsent(t *testing.T) {
	if got := WeightedMean([]*float64{nil, nil, nil}, []float64{0.5, 0.3, 0.2}); got != nil {
		t.Errorf("got %v, want nil", *got)
	}
}

func TestWeightedMean_WeightsNotRenormalized(t *testing.T) {
	// Two of three present: result is (1*0.5 + 0*0.3) / (0.5 + 0.3).
	got := WeightedMean([]*float64{F(1), F(0), nil}, []float64{0.5, 0.3, 0.2})
	if got == nil {
		t.Fatal("expected a value, got nil")
	}
	if !almostEqual(*got, 0.625) {
		t.Errorf("got %v, want 0.625", *got)
	}
}

func TestWeightedMean_LengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on length mismatch")
		}
	}()
	WeightedMean([]*float64{F(1)}, []float64{0.5, 0.5})
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		want   *float64
	}{
		{"all present", []*float64{F(0.2), F(0.4)}, F(0.3)},
		{"skips absent", []*float64{F(1), nil, F(0)}, F(0.5)},
		{"all absent", []*float64{nil, nil}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.values)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got != nil && !almostEqual(*got, *tt.want) {
				t.Errorf("got %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(3, 4); got == nil || !almostEqual(*got, 0.75) {
		t.Errorf("Ratio(3, 4) = %v, want 0.75", got)
	}
	if got := Ratio(0, 5); got == nil || *got != 0 {
		t.Errorf("Ratio(0, 5) = %v, want 0", got)
	}
	if got := Ratio(1, 0); got != nil {
		t.Errorf("Ratio(1, 0) = %v, want nil", *got)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScale(t *testing.T) {
	if got := Scale(F(0.5), 10); got == nil || !almostEqual(*got, 5) {
		t.Errorf("Scale(0.5, 10) = %v, want 5", got)
	}
	if got := Scale(nil, 10); got != nil {
		t.Errorf("Scale(nil, 10) = %v, want nil", *got)
	}
}

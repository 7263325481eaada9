package strategy

import (
	"math"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestResearchWeight(t *testing.T) {
	tests := []struct {
		confidence Confidence
		want       float64
	}{
		{ConfidenceHigh, 0.85},
		{ConfidenceMedium, 0.70},
		{ConfidenceLow, 0.50},
		{ConfidenceNone, 0.70},
		{Confidence("GARBAGE"), 0.70},
	}
	for _, tt := range tests {
		if got := tt.confidence.ResearchWeight(); got != tt.want {
			t.Errorf("ResearchWeight(%q) = %f, want %f", tt.confidence, got, tt.want)
		}
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name       string
		fair       float64
		research   *float64
		confidence Confidence
		want       float64
	}{
		{"no research passes fair through", 0.55, nil, ConfidenceNone, 0.55},
		{"high confidence", 0.55, floatPtr(0.65), ConfidenceHigh, 0.85*0.65 + 0.15*0.55},
		{"medium confidence", 0.55, floatPtr(0.65), ConfidenceMedium, 0.70*0.65 + 0.30*0.55},
		{"low confidence", 0.55, floatPtr(0.65), ConfidenceLow, 0.50*0.65 + 0.50*0.55},
		{"absent confidence defaults to medium", 0.55, floatPtr(0.65), ConfidenceNone, 0.70*0.65 + 0.30*0.55},
		{"research at bound ignored", 0.55, floatPtr(1.0), ConfidenceHigh, 0.55},
		{"research at zero ignored", 0.55, floatPtr(0.0), ConfidenceHigh, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blend(tt.fair, tt.research, tt.confidence)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Blend = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCalcEdge_WithResearch(t *testing.T) {
	// blended = 0.85*0.65 + 0.15*0.55 = 0.6775; edge vs 0.60 = 0.0775
	edge := CalcEdge(0.55, 0.60, floatPtr(0.65), ConfidenceHigh)
	if math.Abs(edge-0.0775) > 1e-9 {
		t.Errorf("CalcEdge = %f, want 0.0775", edge)
	}
}

func TestCalcEdge_NoResearch(t *testing.T) {
	edge := CalcEdge(0.58, 0.50, nil, ConfidenceNone)
	if math.Abs(edge-0.08) > 1e-9 {
		t.Errorf("CalcEdge = %f, want 0.08", edge)
	}

	// Negative edges are not clamped.
	edge = CalcEdge(0.40, 0.50, nil, ConfidenceNone)
	if math.Abs(edge+0.10) > 1e-9 {
		t.Errorf("CalcEdge = %f, want -0.10", edge)
	}
}

func TestKellyFraction_NoEdgeReturnsZero(t *testing.T) {
	for _, factor := range []float64{0.1, 0.25, 0.5, 1.0} {
		if got := KellyFraction(0.50, 0.50, factor, ConfidenceNone); got != 0.0 {
			t.Errorf("KellyFraction(fair == market, factor=%f) = %f, want 0", factor, got)
		}
		if got := KellyFraction(0.45, 0.50, factor, ConfidenceHigh); got != 0.0 {
			t.Errorf("KellyFraction(fair < market, factor=%f) = %f, want 0", factor, got)
		}
	}
}

func TestKellyFraction_ReferenceCase(t *testing.T) {
	// base = (0.60-0.50)/(1-0.50) = 0.20; *0.25 = 0.05; *0.8 (no research) = 0.04
	got := KellyFraction(0.60, 0.50, 0.25, ConfidenceNone)
	if math.Abs(got-0.04) > 1e-9 {
		t.Errorf("KellyFraction = %f, want 0.04", got)
	}
}

func TestKellyFraction_ConfidenceMultipliers(t *testing.T) {
	base := (0.60 - 0.50) / (1 - 0.50) * 0.25 // 0.05

	tests := []struct {
		confidence Confidence
		want       float64
	}{
		{ConfidenceHigh, base * 1.0},
		{ConfidenceMedium, base * 0.9},
		{ConfidenceLow, base * 0.7},
		{ConfidenceNone, base * 0.8},
	}
	for _, tt := range tests {
		got := KellyFraction(0.60, 0.50, 0.25, tt.confidence)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("KellyFraction(conf=%q) = %f, want %f", tt.confidence, got, tt.want)
		}
	}
}

func TestKellyFraction_MonotonicInFairProb(t *testing.T) {
	prev := -1.0
	for fair := 0.50; fair <= 0.95; fair += 0.05 {
		got := KellyFraction(fair, 0.50, 0.25, ConfidenceMedium)
		if got < prev {
			t.Fatalf("KellyFraction not monotonic: f(%f) = %f < previous %f", fair, got, prev)
		}
		prev = got
	}
}

func TestKellyFraction_GuardsDegeneratePrice(t *testing.T) {
	if got := KellyFraction(0.99, 1.0, 0.25, ConfidenceHigh); got != 0.0 {
		t.Errorf("KellyFraction(market=1.0) = %f, want 0 (division guard)", got)
	}
	if got := KellyFraction(0.99, 1.2, 0.25, ConfidenceHigh); got != 0.0 {
		t.Errorf("KellyFraction(market>1) = %f, want 0", got)
	}
}

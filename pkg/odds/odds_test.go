package odds

import (
	"math"
	"testing"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

func TestAmericanToImpliedProb(t *testing.T) {
	tests := []struct {
		name     string
		american int
		want     float64
	}{
		{"heavy favorite", -200, 0.6667},
		{"favorite", -150, 0.60},
		{"standard juice", -110, 0.5238},
		{"even money", 100, 0.50},
		{"underdog", 130, 0.4348},
		{"long shot", 250, 0.2857},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmericanToImpliedProb(tt.american)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("AmericanToImpliedProb(%d) = %f, want %f", tt.american, got, tt.want)
			}
		})
	}
}

func TestRemoveVig_SumsToOne(t *testing.T) {
	pairs := [][2]int{
		{-110, -110},
		{-150, 130},
		{-200, 170},
		{-300, 240},
		{105, -125},
		{500, -700},
	}

	for _, pair := range pairs {
		pA, pB := RemoveVig(AmericanToImpliedProb(pair[0]), AmericanToImpliedProb(pair[1]))
		if sum := pA + pB; math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("RemoveVig(%d, %d): fair probs sum to %f, want 1.0", pair[0], pair[1], sum)
		}
		if pA <= 0 || pA >= 1 || pB <= 0 || pB >= 1 {
			t.Errorf("RemoveVig(%d, %d): fair probs (%f, %f) outside (0,1)", pair[0], pair[1], pA, pB)
		}
	}
}

func TestRemoveVig_DegenerateSum(t *testing.T) {
	pA, pB := RemoveVig(0, 0)
	if pA != 0.5 || pB != 0.5 {
		t.Errorf("RemoveVig(0, 0) = (%f, %f), want (0.5, 0.5)", pA, pB)
	}
}

func TestRemoveVig_SymmetricMarket(t *testing.T) {
	pA, pB := RemoveVig(0.5238, 0.5238)
	if math.Abs(pA-0.5) > 1e-9 || math.Abs(pB-0.5) > 1e-9 {
		t.Errorf("symmetric -110/-110 market should de-vig to (0.5, 0.5), got (%f, %f)", pA, pB)
	}
}

func TestComputeFairProbs(t *testing.T) {
	refOdds := map[string]models.ReferenceOdds{
		"nba-lal-gsw": {
			GameID:            "nba-lal-gsw",
			TeamAAmericanOdds: -150,
			TeamBAmericanOdds: 130,
			Source:            models.OddsSourceAPI,
		},
	}

	fair := ComputeFairProbs(refOdds)

	fp, ok := fair["nba-lal-gsw"]
	if !ok {
		t.Fatal("expected fair probabilities for nba-lal-gsw")
	}
	// -150 -> 0.6 raw, +130 -> 0.4348 raw; normalized ~0.5800 / ~0.4200
	if math.Abs(fp.TeamAFairProb-0.5800) > 0.001 {
		t.Errorf("TeamAFairProb = %f, want ~0.5800", fp.TeamAFairProb)
	}
	if math.Abs(fp.TeamBFairProb-0.4200) > 0.001 {
		t.Errorf("TeamBFairProb = %f, want ~0.4200", fp.TeamBFairProb)
	}
	if sum := fp.TeamAFairProb + fp.TeamBFairProb; math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("fair probs sum to %f, want 1.0", sum)
	}
}

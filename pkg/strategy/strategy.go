// Package strategy implements edge calculation and fractional-Kelly
// position sizing for binary contracts priced in [0,1].
package strategy

// Confidence is the qualitative confidence attached to a research
// probability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	// ConfidenceNone means no research confidence was supplied.
	ConfidenceNone Confidence = ""
)

// ResearchWeight is the weight given to the research probability when
// blending it with the odds-derived fair probability. Unrecognized or
// absent confidence is treated as medium.
func (c Confidence) ResearchWeight() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.85
	case ConfidenceMedium:
		return 0.70
	case ConfidenceLow:
		return 0.50
	default:
		return 0.70
	}
}

// KellyMultiplier scales the fractional-Kelly stake by research
// confidence. Absent research is sized most conservatively after LOW.
func (c Confidence) KellyMultiplier() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.9
	case ConfidenceLow:
		return 0.7
	default:
		return 0.8
	}
}

// Blend combines an odds-derived fair probability with an optional
// research probability. The research view is only used when strictly
// inside (0,1); otherwise the fair probability passes through.
//
// Both edge calculation and Kelly sizing must price off the same
// blended probability, so this is the single place the weighting
// lives.
func Blend(fairProb float64, researchProb *float64, confidence Confidence) float64 {
	if researchProb == nil || *researchProb <= 0 || *researchProb >= 1 {
		return fairProb
	}
	w := confidence.ResearchWeight()
	return w**researchProb + (1-w)*fairProb
}

// CalcEdge returns the expected-value edge of buying YES at
// marketPrice given the blended fair view. Positive means the market
// underprices the side. No clamping is applied.
func CalcEdge(fairProb, marketPrice float64, researchProb *float64, confidence Confidence) float64 {
	return Blend(fairProb, researchProb, confidence) - marketPrice
}

// KellyFraction returns the fraction of bankroll to stake on a binary
// contract bought at marketPrice with believed win probability
// fairProb.
//
// For a contract paying $1 on success the full Kelly fraction is
// f = (q - p) / (1 - p). kellyFactor scales it down (fractional
// Kelly), and the confidence multiplier trims it further.
//
// Returns 0 when there is no edge, and also when marketPrice >= 1,
// which would otherwise divide by zero.
func KellyFraction(fairProb, marketPrice, kellyFactor float64, confidence Confidence) float64 {
	if fairProb <= marketPrice {
		return 0.0
	}
	if marketPrice >= 1.0 {
		return 0.0
	}

	base := (fairProb - marketPrice) / (1.0 - marketPrice)
	baseKelly := base * kellyFactor

	frac := baseKelly * confidence.KellyMultiplier()
	if frac < 0 {
		return 0.0
	}
	return frac
}

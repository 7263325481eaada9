// Package odds converts bookmaker American odds into vig-free fair
// probabilities.
package odds

import "github.com/sharpmismatch/sportsagent/pkg/models"

// AmericanToImpliedProb converts American odds to the raw implied
// probability, vig included.
//
//	-150 -> 150/(150+100) = 0.60
//	+200 -> 100/(200+100) = 0.333
//
// The caller guarantees odds != 0.
func AmericanToImpliedProb(american int) float64 {
	if american < 0 {
		return float64(-american) / float64(-american+100)
	}
	return 100.0 / float64(american+100)
}

// RemoveVig normalizes two raw implied probabilities so they sum to 1,
// proportionally removing the bookmaker margin. A degenerate zero sum
// yields a neutral (0.5, 0.5) rather than dividing by zero.
func RemoveVig(pARaw, pBRaw float64) (pAFair, pBFair float64) {
	total := pARaw + pBRaw
	if total == 0 {
		return 0.5, 0.5
	}
	return pARaw / total, pBRaw / total
}

// ComputeFairProbs derives fair probabilities for every game with
// reference odds.
func ComputeFairProbs(refOdds map[string]models.ReferenceOdds) map[string]models.FairProbabilities {
	fair := make(map[string]models.FairProbabilities, len(refOdds))
	for gameID, ref := range refOdds {
		pARaw := AmericanToImpliedProb(ref.TeamAAmericanOdds)
		pBRaw := AmericanToImpliedProb(ref.TeamBAmericanOdds)
		pAFair, pBFair := RemoveVig(pARaw, pBRaw)
		fair[gameID] = models.FairProbabilities{
			GameID:        gameID,
			TeamAFairProb: pAFair,
			TeamBFairProb: pBFair,
		}
	}
	return fair
}

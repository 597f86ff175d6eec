package agent

import (
	"math"

	"tetris/game"
)

// Agent picks placements by scoring every legal placement with its genome.
// An Agent holds no mutable state and may be shared between goroutines.
type Agent struct {
	genome   Genome
	features game.FeatureSet
}

// NewAgent binds a genome to the feature set it scores against.
func NewAgent(genome Genome, features game.FeatureSet) (*Agent, error) {
	if err := checkLength(genome, features.Len()); err != nil {
		return nil, err
	}
	return &Agent{genome: genome.Clone(), features: features}, nil
}

func (a *Agent) Genome() Genome {
	return a.genome.Clone()
}

func (a *Agent) FeatureSet() game.FeatureSet {
	return a.features
}

// Decide returns the highest scoring placement of kind on b. Ties go to the
// placement enumerated first. The board is not modified.
func (a *Agent) Decide(b *game.Board, kind game.Kind) (game.Placement, error) {
	candidates := game.EnumeratePlacements(b, kind)
	if len(candidates) == 0 {
		return game.Placement{}, game.ErrNoLegalPlacement
	}

	best := -1
	bestScore := math.Inf(-1)
	var bestFeatures []float64
	for i, p := range candidates {
		next, cleared, err := b.Apply(kind, p.Rotation, p.Column)
		if err != nil {
			return game.Placement{}, err
		}
		vec := a.features.Extract(next, cleared)
		score := a.genome.Dot(vec)
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		candidates[i].Cleared = cleared
		candidates[i].Score = score
		if best < 0 || score > bestScore {
			best, bestScore, bestFeatures = i, score, vec
		}
	}

	chosen := candidates[best]
	chosen.Features = bestFeatures
	return chosen, nil
}

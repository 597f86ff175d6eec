package trainer

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// Selector picks two parents from the evaluated individuals of a generation.
// candidates is never empty.
type Selector interface {
	Select(candidates []Individual, rng *rand.Rand) (Individual, Individual)
}

// Roulette draws parents with probability proportional to fitness raised to
// Power. Negative fitness weighs nothing. The first parent is set aside before
// the second is drawn.
type Roulette struct {
	Power float64
}

func (r Roulette) Select(candidates []Individual, rng *rand.Rand) (Individual, Individual) {
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = math.Pow(max(c.Fitness, 0), r.Power)
	}
	return drawPair(candidates, weights, rng)
}

func (r Roulette) String() string {
	return fmt.Sprintf("roulette(power=%g)", r.Power)
}

// Tournament returns the fittest of Size uniform draws, twice.
type Tournament struct {
	Size int
}

func (t Tournament) Select(candidates []Individual, rng *rand.Rand) (Individual, Individual) {
	return t.pick(candidates, rng), t.pick(candidates, rng)
}

func (t Tournament) pick(candidates []Individual, rng *rand.Rand) Individual {
	best := rng.Intn(len(candidates))
	for i := 1; i < t.Size; i++ {
		if j := rng.Intn(len(candidates)); candidates[j].Fitness > candidates[best].Fitness {
			best = j
		}
	}
	return candidates[best]
}

func (t Tournament) String() string {
	return fmt.Sprintf("tournament(size=%d)", t.Size)
}

// Rank weights candidates linearly by rank: the worst has weight 1, the best
// weight len(candidates).
type Rank struct{}

func (Rank) Select(candidates []Individual, rng *rand.Rand) (Individual, Individual) {
	ranked := (&Population{Individuals: candidates}).Ranked()
	weights := make([]float64, len(ranked))
	for i := range ranked {
		weights[i] = float64(len(ranked) - i)
	}
	return drawPair(ranked, weights, rng)
}

func (Rank) String() string {
	return "rank"
}

// drawPair draws two distinct candidates by weight. With a single candidate
// both parents are the same.
func drawPair(candidates []Individual, weights []float64, rng *rand.Rand) (Individual, Individual) {
	first := drawWeighted(weights, -1, rng)
	if len(candidates) == 1 {
		return candidates[first], candidates[first]
	}
	second := drawWeighted(weights, first, rng)
	return candidates[first], candidates[second]
}

// drawWeighted returns an index drawn with probability proportional to its
// weight, skipping exclude. Uniform when no weight is positive.
func drawWeighted(weights []float64, exclude int, rng *rand.Rand) int {
	var total float64
	for i, w := range weights {
		if i != exclude && w > 0 && !math.IsInf(w, 1) {
			total += w
		}
	}
	if total == 0 {
		n := len(weights)
		if exclude >= 0 {
			n--
		}
		i := rng.Intn(n)
		if exclude >= 0 && i >= exclude {
			i++
		}
		return i
	}

	target := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if i == exclude || w <= 0 || math.IsInf(w, 1) {
			continue
		}
		last = i
		target -= w
		if target < 0 {
			return i
		}
	}
	return last
}

// NewSelector builds a selector by name: roulette, tournament or rank.
func NewSelector(name string, power float64, size int) (Selector, error) {
	switch name {
	case "roulette", "":
		return Roulette{Power: power}, nil
	case "tournament":
		return Tournament{Size: size}, nil
	case "rank":
		return Rank{}, nil
	default:
		return nil, fmt.Errorf("unknown selection %q", name)
	}
}

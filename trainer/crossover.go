package trainer

import (
	"fmt"
	"slices"

	"golang.org/x/exp/rand"

	"tetris/agent"
)

// Crossover combines two parents into two children of the same length. The
// parents are not modified.
type Crossover interface {
	Cross(a, b agent.Genome, rng *rand.Rand) (agent.Genome, agent.Genome)
}

// Uniform swaps each weight between the children with probability Mix.
type Uniform struct {
	Mix float64
}

func (u Uniform) Cross(a, b agent.Genome, rng *rand.Rand) (agent.Genome, agent.Genome) {
	c1, c2 := a.Clone(), b.Clone()
	for i := range c1 {
		if rng.Float64() < u.Mix {
			c1[i], c2[i] = c2[i], c1[i]
		}
	}
	return c1, c2
}

func (u Uniform) String() string {
	return fmt.Sprintf("uniform(mix=%g)", u.Mix)
}

// OnePoint exchanges the tails after a random cut.
type OnePoint struct{}

func (OnePoint) Cross(a, b agent.Genome, rng *rand.Rand) (agent.Genome, agent.Genome) {
	return KPoint{K: 1}.Cross(a, b, rng)
}

func (OnePoint) String() string {
	return "one-point"
}

// KPoint cuts both parents at K distinct points and alternates segments.
type KPoint struct {
	K int
}

func (k KPoint) Cross(a, b agent.Genome, rng *rand.Rand) (agent.Genome, agent.Genome) {
	c1, c2 := a.Clone(), b.Clone()
	n := len(c1)
	if n < 2 || k.K < 1 {
		return c1, c2
	}

	// Cuts fall between weights, at positions 1..n-1.
	cuts := rng.Perm(n - 1)[:min(k.K, n-1)]
	for i := range cuts {
		cuts[i]++
	}
	slices.Sort(cuts)

	swap := false
	next := 0
	for i := range c1 {
		if next < len(cuts) && i == cuts[next] {
			swap = !swap
			next++
		}
		if swap {
			c1[i], c2[i] = c2[i], c1[i]
		}
	}
	return c1, c2
}

func (k KPoint) String() string {
	return fmt.Sprintf("%d-point", k.K)
}

// NewCrossover builds a crossover by name: uniform, one-point or k-point.
func NewCrossover(name string, mix float64, points int) (Crossover, error) {
	switch name {
	case "uniform", "":
		return Uniform{Mix: mix}, nil
	case "one-point":
		return OnePoint{}, nil
	case "k-point":
		return KPoint{K: points}, nil
	default:
		return nil, fmt.Errorf("unknown crossover %q", name)
	}
}

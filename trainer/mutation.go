package trainer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"tetris/agent"
	"tetris/utils"
)

// Mutator perturbs a genome in place without changing its length.
type Mutator interface {
	Mutate(g agent.Genome, rng *rand.Rand)
}

// Gaussian adds N(0, Sigma²) noise to each weight with probability Rate.
type Gaussian struct {
	Rate  float64
	Sigma float64
}

func (m Gaussian) Mutate(g agent.Genome, rng *rand.Rand) {
	for i := range g {
		if rng.Float64() < m.Rate {
			g[i] += rng.NormFloat64() * m.Sigma
		}
	}
}

func (m Gaussian) String() string {
	return fmt.Sprintf("gaussian(rate=%g, sigma=%g)", m.Rate, m.Sigma)
}

// Noisy scales each weight by 1+Volume or 1-Volume with probability Rate.
type Noisy struct {
	Rate   float64
	Volume float64
}

func (m Noisy) Mutate(g agent.Genome, rng *rand.Rand) {
	for i := range g {
		if rng.Float64() < m.Rate {
			sign := 1.0
			if rng.Intn(2) == 0 {
				sign = -1
			}
			g[i] *= 1 + sign*m.Volume
		}
	}
}

func (m Noisy) String() string {
	return fmt.Sprintf("noisy(rate=%g, volume=%g)", m.Rate, m.Volume)
}

// Flip negates each weight with probability Rate.
type Flip struct {
	Rate float64
}

func (m Flip) Mutate(g agent.Genome, rng *rand.Rand) {
	for i := range g {
		if rng.Float64() < m.Rate {
			g[i] = -g[i]
		}
	}
}

func (m Flip) String() string {
	return fmt.Sprintf("flip(rate=%g)", m.Rate)
}

// Reset redraws each weight uniformly from [Min, Max) with probability Rate.
type Reset struct {
	Rate float64
	Min  float64
	Max  float64
}

func (m Reset) Mutate(g agent.Genome, rng *rand.Rand) {
	for i := range g {
		if rng.Float64() < m.Rate {
			g[i] = m.Min + (m.Max-m.Min)*rng.Float64()
		}
	}
}

func (m Reset) String() string {
	return fmt.Sprintf("reset(rate=%g)", m.Rate)
}

// Swap exchanges two distinct weights with probability 2*Rate, capped at one.
type Swap struct {
	Rate float64
}

func (m Swap) Mutate(g agent.Genome, rng *rand.Rand) {
	if len(g) < 2 || rng.Float64() >= utils.Clamp(2*m.Rate, 0, 1) {
		return
	}
	i := rng.Intn(len(g))
	j := rng.Intn(len(g) - 1)
	if j >= i {
		j++
	}
	g[i], g[j] = g[j], g[i]
}

func (m Swap) String() string {
	return fmt.Sprintf("swap(rate=%g)", m.Rate)
}

// NewMutator builds a mutator by name. volume is the noise scale: sigma for
// gaussian, the scaling factor for noisy. lo and hi bound reset draws.
func NewMutator(name string, rate, volume, lo, hi float64) (Mutator, error) {
	switch name {
	case "gaussian", "":
		return Gaussian{Rate: rate, Sigma: volume}, nil
	case "noisy":
		return Noisy{Rate: rate, Volume: volume}, nil
	case "flip":
		return Flip{Rate: rate}, nil
	case "reset":
		return Reset{Rate: rate, Min: lo, Max: hi}, nil
	case "swap":
		return Swap{Rate: rate}, nil
	default:
		return nil, fmt.Errorf("unknown mutation %q", name)
	}
}

package trainer

import (
	"cmp"
	"slices"

	"golang.org/x/exp/rand"

	"tetris/agent"
	"tetris/utils"
)

// Stats aggregates the playouts behind one fitness value.
type Stats struct {
	Playouts  int
	Pieces    int
	Lines     int
	Steps     int
	MaxHeight int
	Capped    int // Playouts stopped by the step cap
}

func (s *Stats) add(o Stats) {
	s.Playouts += o.Playouts
	s.Pieces += o.Pieces
	s.Lines += o.Lines
	s.Steps += o.Steps
	s.MaxHeight = max(s.MaxHeight, o.MaxHeight)
	s.Capped += o.Capped
}

type Individual struct {
	Genome    agent.Genome
	Fitness   float64
	Evaluated bool
	Failed    bool
	Stats     Stats
}

func (ind Individual) Clone() Individual {
	ind.Genome = ind.Genome.Clone()
	return ind
}

// Population is one generation. It is never modified once evaluated; the
// trainer builds the next generation as a new value.
type Population struct {
	Generation  int
	Individuals []Individual
}

// NewRandomPopulation draws every weight uniformly from [lo, hi).
func NewRandomPopulation(size, genomeLen int, lo, hi float64, rng *rand.Rand) *Population {
	pop := &Population{Individuals: make([]Individual, size)}
	for i := range pop.Individuals {
		g := make(agent.Genome, genomeLen)
		for j := range g {
			g[j] = lo + (hi-lo)*rng.Float64()
		}
		pop.Individuals[i].Genome = g
	}
	return pop
}

// NewPopulation wraps existing genomes as an unevaluated generation zero.
func NewPopulation(genomes []agent.Genome) *Population {
	pop := &Population{Individuals: make([]Individual, len(genomes))}
	for i, g := range genomes {
		pop.Individuals[i].Genome = g.Clone()
	}
	return pop
}

func (p *Population) Len() int {
	return len(p.Individuals)
}

func (p *Population) Clone() *Population {
	c := &Population{Generation: p.Generation, Individuals: make([]Individual, len(p.Individuals))}
	for i, ind := range p.Individuals {
		c.Individuals[i] = ind.Clone()
	}
	return c
}

// Evaluated returns the individuals that have a fitness, in population order.
func (p *Population) Evaluated() []Individual {
	out := make([]Individual, 0, len(p.Individuals))
	for _, ind := range p.Individuals {
		if ind.Evaluated {
			out = append(out, ind)
		}
	}
	return out
}

func (p *Population) fitnesses() []float64 {
	evaluated := p.Evaluated()
	out := make([]float64, len(evaluated))
	for i, ind := range evaluated {
		out[i] = ind.Fitness
	}
	return out
}

// Best returns the fittest evaluated individual, the earliest one on ties.
// ok is false when nothing has been evaluated.
func (p *Population) Best() (best Individual, ok bool) {
	evaluated := p.Evaluated()
	i := utils.ArgMax(p.fitnesses())
	if i < 0 {
		return Individual{}, false
	}
	return evaluated[i], true
}

func (p *Population) Mean() float64 {
	return utils.Mean(p.fitnesses())
}

func (p *Population) Worst() float64 {
	f := p.fitnesses()
	if len(f) == 0 {
		return 0
	}
	return slices.Min(f)
}

// Ranked returns the evaluated individuals sorted by descending fitness,
// keeping population order among equals.
func (p *Population) Ranked() []Individual {
	ranked := p.Evaluated()
	slices.SortStableFunc(ranked, func(a, b Individual) int {
		return cmp.Compare(b.Fitness, a.Fitness)
	})
	return ranked
}

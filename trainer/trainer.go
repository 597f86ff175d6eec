package trainer

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"tetris/agent"
	"tetris/game"
	"tetris/meta"
)

// StopReason tells why Train returned.
type StopReason string

const (
	StopGenerations StopReason = "generations"
	StopStagnation  StopReason = "stagnation"
	StopConverged   StopReason = "converged"
	StopCancelled   StopReason = "cancelled"
)

// convergenceWarmup is the number of generations before the mean improvement
// test applies.
const convergenceWarmup = 10

// Result is the outcome of a training run. Population and Best belong to the
// last generation that was completely evaluated.
type Result struct {
	Best       Individual
	Population *Population
	History    []GenerationRecord
	Reason     StopReason
}

type Option func(t *Trainer)

func WithPopulationSize(n int) Option {
	return func(t *Trainer) { t.populationSize = n }
}

func WithGenerations(n int) Option {
	return func(t *Trainer) { t.generations = n }
}

func WithBoard(width, height int) Option {
	return func(t *Trainer) { t.width, t.height = width, height }
}

func WithSelector(s Selector) Option {
	return func(t *Trainer) { t.selector = s }
}

// WithCrossover sets the crossover and the probability it is applied to a
// pair. Otherwise the children are copies of their parents.
func WithCrossover(c Crossover, rate float64) Option {
	return func(t *Trainer) { t.crossover, t.crossoverRate = c, rate }
}

func WithMutator(m Mutator) Option {
	return func(t *Trainer) { t.mutator = m }
}

// WithElitism carries the n fittest individuals into the next generation
// unchanged, fitness included. 0 disables elitism.
func WithElitism(n int) Option {
	return func(t *Trainer) { t.elitism = n }
}

func WithPlayouts(n int) Option {
	return func(t *Trainer) { t.playouts = n }
}

func WithMaxSteps(n int) Option {
	return func(t *Trainer) { t.maxSteps = n }
}

// WithWorkers sets the evaluation pool size, capped at runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(t *Trainer) { t.workers = n }
}

func WithSeed(seed uint64) Option {
	return func(t *Trainer) { t.seed = seed }
}

func WithSequencer(name string) Option {
	return func(t *Trainer) { t.sequencer = name }
}

func WithMetric(m Metric) Option {
	return func(t *Trainer) { t.metric = m }
}

// WithStagnation stops training after n generations without a new best
// fitness. 0 disables the check.
func WithStagnation(n int) Option {
	return func(t *Trainer) { t.stagnation = n }
}

// WithMinImprovement stops training once the mean fitness changes by less
// than the given fraction between generations. 0 disables the check.
func WithMinImprovement(fraction float64) Option {
	return func(t *Trainer) { t.minImprovement = fraction }
}

// WithInitialPopulation seeds generation zero instead of drawing random genomes.
func WithInitialPopulation(genomes []agent.Genome) Option {
	return func(t *Trainer) { t.initial = genomes }
}

func WithReporter(r Reporter) Option {
	return func(t *Trainer) { t.reporter = r }
}

func WithFeatureSet(fs game.FeatureSet) Option {
	return func(t *Trainer) { t.features = fs }
}

// WithInitRange bounds the weights of random genomes in generation zero.
func WithInitRange(lo, hi float64) Option {
	return func(t *Trainer) { t.initMin, t.initMax = lo, hi }
}

type Trainer struct {
	populationSize int
	generations    int
	width          int
	height         int
	selector       Selector
	crossover      Crossover
	crossoverRate  float64
	mutator        Mutator
	elitism        int
	playouts       int
	maxSteps       int
	workers        int
	seed           uint64
	sequencer      string
	metric         Metric
	stagnation     int
	minImprovement float64
	initial        []agent.Genome
	reporter       Reporter
	features       game.FeatureSet
	initMin        float64
	initMax        float64
}

// New builds a trainer and checks every setting. Invalid settings are
// reported as a *ConfigurationError before any work starts.
func New(options ...Option) (*Trainer, error) {
	t := &Trainer{ // Default values
		populationSize: meta.POPULATION_SIZE,
		generations:    meta.GENERATIONS,
		width:          meta.BOARD_WIDTH,
		height:         meta.BOARD_HEIGHT,
		selector:       Roulette{Power: 2},
		crossover:      Uniform{Mix: 0.5},
		crossoverRate:  meta.CROSSOVER_RATE,
		mutator:        Gaussian{Rate: meta.MUTATION_RATE, Sigma: meta.MUTATION_SIGMA},
		elitism:        meta.ELITISM,
		playouts:       meta.PLAYOUTS,
		maxSteps:       meta.MAX_STEPS,
		workers:        meta.WORKERS,
		seed:           meta.SEED,
		sequencer:      game.RandomSequence,
		metric:         MetricCombined,
		stagnation:     meta.STAGNATION,
		minImprovement: meta.MIN_IMPROVEMENT,
		reporter:       nopReporter{},
		features:       game.FeaturesV1,
		initMin:        meta.INIT_MIN,
		initMax:        meta.INIT_MAX,
	}
	for _, option := range options {
		option(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trainer) validate() error {
	switch {
	case t.populationSize < 2:
		return configErr("population_size", "must be at least 2, got %d", t.populationSize)
	case t.generations < 1:
		return configErr("generations", "must be at least 1, got %d", t.generations)
	case t.elitism < 0 || t.elitism >= t.populationSize:
		return configErr("elitism", "must be in [0, %d), got %d", t.populationSize, t.elitism)
	case t.playouts < 1:
		return configErr("playouts", "must be at least 1, got %d", t.playouts)
	case t.maxSteps < 1:
		return configErr("max_steps", "must be at least 1, got %d", t.maxSteps)
	case t.workers < 1:
		return configErr("workers", "must be at least 1, got %d", t.workers)
	case t.stagnation < 0:
		return configErr("stagnation", "must not be negative, got %d", t.stagnation)
	case t.minImprovement < 0 || math.IsNaN(t.minImprovement):
		return configErr("min_improvement", "must not be negative, got %g", t.minImprovement)
	case t.crossoverRate < 0 || t.crossoverRate > 1:
		return configErr("crossover.rate", "must be in [0, 1], got %g", t.crossoverRate)
	case !(t.initMin < t.initMax):
		return configErr("init_range", "min %g must be below max %g", t.initMin, t.initMax)
	case t.features.Len() == 0:
		return configErr("feature_set", "has no features")
	case t.selector == nil:
		return configErr("selection", "missing")
	case t.crossover == nil:
		return configErr("crossover", "missing")
	case t.mutator == nil:
		return configErr("mutation", "missing")
	case t.reporter == nil:
		return configErr("reporter", "missing")
	}

	if _, err := game.NewBoard(t.width, t.height); err != nil {
		return &ConfigurationError{Field: "board", Reason: fmt.Sprintf("%dx%d", t.width, t.height), Err: err}
	}
	if _, err := game.NewSequencer(t.sequencer, 0); err != nil {
		return &ConfigurationError{Field: "sequencer", Reason: "unsupported", Err: err}
	}
	if _, err := ParseMetric(string(t.metric)); err != nil {
		return &ConfigurationError{Field: "metric", Reason: "unsupported", Err: err}
	}
	if err := validateOperators(t.selector, t.crossover, t.mutator); err != nil {
		return err
	}

	if t.initial != nil {
		if len(t.initial) != t.populationSize {
			return configErr("initial_population", "has %d genomes, want %d", len(t.initial), t.populationSize)
		}
		for i, g := range t.initial {
			if _, err := agent.NewAgent(g, t.features); err != nil {
				return &ConfigurationError{Field: "initial_population", Reason: fmt.Sprintf("genome %d", i), Err: err}
			}
		}
	}
	return nil
}

func validateOperators(s Selector, c Crossover, m Mutator) error {
	switch s := s.(type) {
	case Roulette:
		if s.Power < 0 || math.IsNaN(s.Power) {
			return configErr("selection.power", "must not be negative, got %g", s.Power)
		}
	case Tournament:
		if s.Size < 1 {
			return configErr("selection.tournament_size", "must be at least 1, got %d", s.Size)
		}
	}

	switch c := c.(type) {
	case Uniform:
		if c.Mix < 0 || c.Mix > 1 {
			return configErr("crossover.mix", "must be in [0, 1], got %g", c.Mix)
		}
	case KPoint:
		if c.K < 1 {
			return configErr("crossover.points", "must be at least 1, got %d", c.K)
		}
	}

	rate := func(r float64) error {
		if r < 0 || r > 1 {
			return configErr("mutation.rate", "must be in [0, 1], got %g", r)
		}
		return nil
	}
	switch m := m.(type) {
	case Gaussian:
		if m.Sigma < 0 {
			return configErr("mutation.volume", "sigma must not be negative, got %g", m.Sigma)
		}
		return rate(m.Rate)
	case Noisy:
		return rate(m.Rate)
	case Flip:
		return rate(m.Rate)
	case Swap:
		return rate(m.Rate)
	case Reset:
		if !(m.Min < m.Max) {
			return configErr("mutation.range", "min %g must be below max %g", m.Min, m.Max)
		}
		return rate(m.Rate)
	}
	return nil
}

// Train runs generations until a stop condition holds. Generations run one
// after the other; each is evaluated in parallel. On cancellation the result
// of the last complete generation is returned together with ctx.Err().
func (t *Trainer) Train(ctx context.Context) (Result, error) {
	rng := rand.New(rand.NewSource(t.seed))
	evaluator := NewEvaluator(EvaluatorConfig{
		Workers:   t.workers,
		Width:     t.width,
		Height:    t.height,
		MaxSteps:  t.maxSteps,
		Features:  t.features,
		Sequencer: t.sequencer,
		Seeds:     PlayoutSeeds(t.seed, t.playouts),
		Metric:    t.metric,
		Metrics:   NewCollector(),
	})

	var pop *Population
	if t.initial != nil {
		pop = NewPopulation(t.initial)
	} else {
		pop = NewRandomPopulation(t.populationSize, t.features.Len(), t.initMin, t.initMax, rng)
	}

	log.Info().Msgf("training %d genomes over %d features for up to %d generations (%v, %v, %v)",
		t.populationSize, t.features.Len(), t.generations, t.selector, t.crossover, t.mutator)

	var res Result
	bestSoFar := math.Inf(-1)
	sinceImproved := 0
	for {
		evaluated, m, err := evaluator.Evaluate(ctx, pop)
		if err != nil {
			res.Reason = StopCancelled
			log.Warn().Err(err).Msgf("training stopped during generation %d", pop.Generation)
			return res, err
		}

		rec := newRecord(evaluated, m)
		res.Population = evaluated
		res.Best, _ = evaluated.Best()
		res.History = append(res.History, rec)
		t.reporter.Report(rec)
		log.Info().Msgf("generation %d: best %.3f, mean %.3f, worst %.3f, %d failures, %d playouts in %s",
			rec.Generation, rec.Best, rec.Mean, rec.Worst, rec.Failures, rec.Playouts, rec.Duration)

		if rec.Best > bestSoFar {
			bestSoFar = rec.Best
			sinceImproved = 0
		} else {
			sinceImproved++
		}

		if reason, stop := t.stopReason(res.History, sinceImproved); stop {
			res.Reason = reason
			log.Info().Msgf("training finished after %d generations: %s", len(res.History), reason)
			return res, nil
		}

		pop = t.breed(evaluated, rng)
	}
}

func (t *Trainer) stopReason(history []GenerationRecord, sinceImproved int) (StopReason, bool) {
	n := len(history)
	if n >= t.generations {
		return StopGenerations, true
	}
	if t.stagnation > 0 && sinceImproved >= t.stagnation {
		return StopStagnation, true
	}
	if t.minImprovement > 0 && n >= convergenceWarmup {
		prev, cur := history[n-2].Mean, history[n-1].Mean
		if prev != 0 && math.Abs(cur-prev)/math.Abs(prev) < t.minImprovement {
			return StopConverged, true
		}
	}
	return "", false
}

// breed builds the next generation: elites first, then mutated children of
// selected pairs until the population is full.
func (t *Trainer) breed(pop *Population, rng *rand.Rand) *Population {
	next := &Population{
		Generation:  pop.Generation + 1,
		Individuals: make([]Individual, 0, t.populationSize),
	}

	ranked := pop.Ranked()
	for i := 0; i < t.elitism && i < len(ranked); i++ {
		next.Individuals = append(next.Individuals, ranked[i].Clone())
	}

	candidates := pop.Evaluated()
	for len(next.Individuals) < t.populationSize {
		a, b := t.selector.Select(candidates, rng)
		c1, c2 := a.Genome.Clone(), b.Genome.Clone()
		if rng.Float64() < t.crossoverRate {
			c1, c2 = t.crossover.Cross(a.Genome, b.Genome, rng)
		}
		for _, child := range []agent.Genome{c1, c2} {
			if len(next.Individuals) == t.populationSize {
				break
			}
			t.mutator.Mutate(child, rng)
			next.Individuals = append(next.Individuals, Individual{Genome: child})
		}
	}
	return next
}

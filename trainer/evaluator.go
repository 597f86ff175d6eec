package trainer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"tetris/agent"
	"tetris/engine"
	"tetris/game"
)

type task struct {
	index  int
	genome agent.Genome
}

type outcome struct {
	index   int
	fitness float64
	stats   Stats
	err     error
}

type playFunc func(ctx context.Context, g agent.Genome, seed uint64) (engine.Result, error)

// EvaluatorConfig describes how each genome is played. Seeds holds one piece
// sequence seed per playout, shared by every genome.
type EvaluatorConfig struct {
	Workers   int
	Width     int
	Height    int
	MaxSteps  int
	Features  game.FeatureSet
	Sequencer string
	Seeds     []uint64
	Metric    Metric
	Metrics   Collector
}

// Evaluator scores populations on a fixed pool of worker goroutines.
type Evaluator struct {
	cfg     EvaluatorConfig
	metrics Collector
	play    playFunc
}

func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	cfg.Workers = max(1, min(cfg.Workers, runtime.NumCPU()))
	if cfg.Metric == "" {
		cfg.Metric = MetricCombined
	}
	e := &Evaluator{cfg: cfg, metrics: cfg.Metrics}
	if e.metrics == nil {
		e.metrics = NewDummyCollector()
	}
	e.play = e.playout
	return e
}

// PlayoutSeeds derives n piece sequence seeds from a run seed.
func PlayoutSeeds(seed uint64, n int) []uint64 {
	rng := rand.New(rand.NewSource(seed))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return seeds
}

// Evaluate returns a copy of pop with every unevaluated individual scored.
// Individuals that already carry a fitness are left as they are. On
// cancellation the individuals not yet played stay unevaluated and ctx.Err()
// is returned.
func (e *Evaluator) Evaluate(ctx context.Context, pop *Population) (*Population, EvaluationMetrics, error) {
	next := pop.Clone()

	var pending []int
	for i, ind := range next.Individuals {
		if !ind.Evaluated {
			pending = append(pending, i)
		}
	}

	workers := max(1, min(e.cfg.Workers, len(pending)))
	e.metrics.Start(workers)

	tasks := make(chan task, len(pending))
	outcomes := make(chan outcome, len(pending))

	go func() {
		defer close(tasks)
		for _, i := range pending {
			if ctx.Err() != nil {
				return
			}
			tasks <- task{index: i, genome: next.Individuals[i].Genome.Clone()}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for t := range tasks {
				if ctx.Err() != nil {
					continue
				}
				outcomes <- e.evaluate(ctx, t)
			}
		}()
	}

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		ind := &next.Individuals[o.index]
		var failure *EvaluationFailure
		switch {
		case errors.As(o.err, &failure):
			log.Warn().Err(failure).Msgf("individual %d scored zero", o.index)
			e.metrics.AddFailure()
			ind.Fitness, ind.Evaluated, ind.Failed, ind.Stats = 0, true, true, o.stats
		case o.err != nil:
			// Interrupted by cancellation.
		default:
			e.metrics.AddEvaluated()
			ind.Fitness, ind.Evaluated, ind.Failed, ind.Stats = o.fitness, true, false, o.stats
		}
	}

	metrics := e.metrics.Complete()
	if err := ctx.Err(); err != nil {
		return next, metrics, err
	}
	return next, metrics, nil
}

func (e *Evaluator) evaluate(ctx context.Context, t task) (o outcome) {
	o.index = t.index
	defer func() {
		if r := recover(); r != nil {
			o.err = &EvaluationFailure{Index: t.index, Genome: t.genome, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var total float64
	for _, seed := range e.cfg.Seeds {
		res, err := e.play(ctx, t.genome, seed)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				o.err = err
			} else {
				o.err = &EvaluationFailure{Index: t.index, Genome: t.genome, Err: err}
			}
			return o
		}
		e.metrics.AddPlayout(res)
		total += e.cfg.Metric.Score(res)

		capped := 0
		if res.Capped {
			capped = 1
		}
		o.stats.add(Stats{Playouts: 1, Pieces: res.Pieces, Lines: res.Lines, Steps: res.Steps, MaxHeight: res.MaxHeight, Capped: capped})
	}
	if n := len(e.cfg.Seeds); n > 0 {
		o.fitness = total / float64(n)
	}
	return o
}

// playout plays one game with objects owned by the calling worker.
func (e *Evaluator) playout(ctx context.Context, g agent.Genome, seed uint64) (engine.Result, error) {
	a, err := agent.NewAgent(g, e.cfg.Features)
	if err != nil {
		return engine.Result{}, err
	}
	seq, err := game.NewSequencer(e.cfg.Sequencer, seed)
	if err != nil {
		return engine.Result{}, err
	}
	return engine.NewPlayout(a, seq, e.cfg.Width, e.cfg.Height, engine.WithMaxSteps(e.cfg.MaxSteps)).Run(ctx)
}

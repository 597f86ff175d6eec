package trainer

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"tetris/agent"
	"tetris/engine"
	"tetris/game"
)

func testEvaluator(workers int) *Evaluator {
	return NewEvaluator(EvaluatorConfig{
		Workers:   workers,
		Width:     10,
		Height:    20,
		MaxSteps:  60,
		Features:  game.FeaturesV1,
		Sequencer: game.RandomSequence,
		Seeds:     PlayoutSeeds(1, 2),
		Metric:    MetricLines,
	})
}

func genomesPopulation(genomes ...agent.Genome) *Population {
	return NewPopulation(genomes)
}

func TestEvaluator(t *testing.T) {
	t.Run("results are matched back to their individuals", func(t *testing.T) {
		e := testEvaluator(4)
		e.play = func(_ context.Context, g agent.Genome, _ uint64) (engine.Result, error) {
			return engine.Result{Lines: int(g[0])}, nil
		}
		var genomes []agent.Genome
		for i := 0; i < 40; i++ {
			genomes = append(genomes, agent.Genome{float64(i)})
		}

		next, m, err := e.Evaluate(context.Background(), genomesPopulation(genomes...))

		require.NoError(t, err)
		for i, ind := range next.Individuals {
			require.True(t, ind.Evaluated)
			require.Equal(t, float64(i), ind.Fitness, "Individual %d", i)
			require.Equal(t, 2, ind.Stats.Playouts)
		}
		require.Zero(t, m.Playouts, "Default collector records nothing")
	})

	t.Run("a panicking playout only fails its individual", func(t *testing.T) {
		e := testEvaluator(3)
		e.play = func(_ context.Context, g agent.Genome, _ uint64) (engine.Result, error) {
			if g[0] == 2 {
				panic("corrupt board")
			}
			return engine.Result{Lines: 1}, nil
		}

		next, _, err := e.Evaluate(context.Background(), genomesPopulation(agent.Genome{0}, agent.Genome{1}, agent.Genome{2}, agent.Genome{3}))

		require.NoError(t, err)
		for i, ind := range next.Individuals {
			require.True(t, ind.Evaluated)
			if i == 2 {
				require.True(t, ind.Failed)
				require.Zero(t, ind.Fitness)
				continue
			}
			require.False(t, ind.Failed)
			require.Equal(t, 1.0, ind.Fitness)
		}
	})

	t.Run("a genome of the wrong length fails without stopping the rest", func(t *testing.T) {
		e := testEvaluator(2)
		e.cfg.Metrics = NewCollector()
		e.metrics = e.cfg.Metrics
		good := make(agent.Genome, game.FeaturesV1.Len())

		next, m, err := e.Evaluate(context.Background(), genomesPopulation(good, agent.Genome{1, 2}, good))

		require.NoError(t, err)
		require.True(t, next.Individuals[1].Failed)
		require.False(t, next.Individuals[0].Failed)
		require.False(t, next.Individuals[2].Failed)
		require.Equal(t, 1, m.Failures)
		require.Equal(t, 2, m.Evaluated)
		require.Equal(t, 4, m.Playouts)
	})

	t.Run("evaluation failures wrap the cause", func(t *testing.T) {
		boom := errors.New("boom")
		e := testEvaluator(1)
		e.play = func(context.Context, agent.Genome, uint64) (engine.Result, error) {
			return engine.Result{}, boom
		}

		o := e.evaluate(context.Background(), task{index: 5, genome: agent.Genome{1}})

		require.ErrorIs(t, o.err, ErrEvaluation)
		require.ErrorIs(t, o.err, boom)
		var failure *EvaluationFailure
		require.ErrorAs(t, o.err, &failure)
		require.Equal(t, 5, failure.Index)
	})

	t.Run("individuals with a fitness are not replayed", func(t *testing.T) {
		var calls atomic.Int64
		e := testEvaluator(2)
		e.play = func(context.Context, agent.Genome, uint64) (engine.Result, error) {
			calls.Add(1)
			return engine.Result{Lines: 3}, nil
		}
		pop := genomesPopulation(agent.Genome{0}, agent.Genome{1})
		pop.Individuals[0].Evaluated = true
		pop.Individuals[0].Fitness = 99

		next, _, err := e.Evaluate(context.Background(), pop)

		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load(), "Only the second individual plays its two games")
		require.Equal(t, 99.0, next.Individuals[0].Fitness)
		require.Equal(t, 3.0, next.Individuals[1].Fitness)
		require.False(t, pop.Individuals[1].Evaluated, "Input population should not change")
	})

	t.Run("cancellation leaves individuals unevaluated", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := testEvaluator(2)

		next, _, err := e.Evaluate(ctx, genomesPopulation(agent.Genome{0}, agent.Genome{1}))

		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, next.Evaluated())
	})

	t.Run("fitness is a function of the genome", func(t *testing.T) {
		g := agent.Genome{-0.51, 0, -0.36, -0.18, 0.76, 0, 0, 0, -100}
		pop := genomesPopulation(g, g.Clone(), g.Clone())

		first, _, err := testEvaluator(3).Evaluate(context.Background(), pop)
		require.NoError(t, err)
		second, _, err := testEvaluator(1).Evaluate(context.Background(), pop)
		require.NoError(t, err)

		for i := range pop.Individuals {
			require.Equal(t, first.Individuals[0].Fitness, first.Individuals[i].Fitness)
			require.Equal(t, first.Individuals[i].Fitness, second.Individuals[i].Fitness)
		}
	})

	t.Run("worker pool is capped at the CPU count", func(t *testing.T) {
		require.LessOrEqual(t, testEvaluator(10_000).cfg.Workers, runtime.NumCPU())
		require.Equal(t, 1, testEvaluator(0).cfg.Workers)
	})
}

func TestPlayoutSeeds(t *testing.T) {
	require.Equal(t, PlayoutSeeds(9, 5), PlayoutSeeds(9, 5))
	require.NotEqual(t, PlayoutSeeds(9, 5), PlayoutSeeds(10, 5))
	require.Len(t, PlayoutSeeds(1, 3), 3)
}

func TestMetric(t *testing.T) {
	r := engine.Result{Pieces: 200, Lines: 30}

	require.Equal(t, 30.0, MetricLines.Score(r))
	require.Equal(t, 200.0, MetricPieces.Score(r))
	require.Equal(t, 32.0, MetricCombined.Score(r))

	m, err := ParseMetric("")
	require.NoError(t, err)
	require.Equal(t, MetricCombined, m)
	_, err = ParseMetric("score")
	require.Error(t, err)
}

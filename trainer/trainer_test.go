package trainer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tetris/agent"
	"tetris/game"
)

// quick keeps runs small enough for unit tests.
func quick(opts ...Option) []Option {
	return append([]Option{
		WithPopulationSize(8),
		WithGenerations(4),
		WithPlayouts(1),
		WithMaxSteps(40),
		WithWorkers(4),
		WithSeed(11),
	}, opts...)
}

func TestNew(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		_, err := New()
		require.NoError(t, err)
	})

	for name, tc := range map[string]struct {
		option Option
		field  string
	}{
		"tiny population":      {WithPopulationSize(1), "population_size"},
		"no generations":       {WithGenerations(0), "generations"},
		"elitism fills all":    {WithElitism(50), "elitism"},
		"negative elitism":     {WithElitism(-1), "elitism"},
		"no playouts":          {WithPlayouts(0), "playouts"},
		"no steps":             {WithMaxSteps(0), "max_steps"},
		"no workers":           {WithWorkers(0), "workers"},
		"negative stagnation":  {WithStagnation(-2), "stagnation"},
		"negative improvement": {WithMinImprovement(-0.1), "min_improvement"},
		"crossover rate":       {WithCrossover(Uniform{Mix: 0.5}, 1.5), "crossover.rate"},
		"crossover mix":        {WithCrossover(Uniform{Mix: 2}, 0.5), "crossover.mix"},
		"no cut points":        {WithCrossover(KPoint{}, 0.5), "crossover.points"},
		"empty tournament":     {WithSelector(Tournament{}), "selection.tournament_size"},
		"negative power":       {WithSelector(Roulette{Power: -1}), "selection.power"},
		"mutation rate":        {WithMutator(Gaussian{Rate: 2}), "mutation.rate"},
		"swap rate":            {WithMutator(Swap{Rate: 1.5}), "mutation.rate"},
		"negative sigma":       {WithMutator(Gaussian{Rate: 0.1, Sigma: -1}), "mutation.volume"},
		"reset range":          {WithMutator(Reset{Rate: 0.1, Min: 1, Max: 1}), "mutation.range"},
		"init range":           {WithInitRange(1, -1), "init_range"},
		"missing selector":     {WithSelector(nil), "selection"},
		"missing reporter":     {WithReporter(nil), "reporter"},
		"unknown metric":       {WithMetric("score"), "metric"},
		"unknown sequencer":    {WithSequencer("lucky"), "sequencer"},
		"empty feature set":    {WithFeatureSet(game.FeatureSet{Version: "none"}), "feature_set"},
		"initial count":        {WithInitialPopulation([]agent.Genome{make(agent.Genome, 9)}), "initial_population"},
	} {
		t.Run("rejecting "+name, func(t *testing.T) {
			_, err := New(tc.option)

			require.ErrorIs(t, err, ErrConfiguration)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}

	t.Run("board errors keep their cause", func(t *testing.T) {
		_, err := New(WithBoard(2, 20))

		require.ErrorIs(t, err, ErrConfiguration)
		require.ErrorIs(t, err, game.ErrInvalidDimensions)
	})

	t.Run("genome length errors keep their cause", func(t *testing.T) {
		genomes := make([]agent.Genome, 8)
		for i := range genomes {
			genomes[i] = make(agent.Genome, 9)
		}
		genomes[3] = agent.Genome{1}

		_, err := New(quick(WithInitialPopulation(genomes))...)

		require.ErrorIs(t, err, ErrConfiguration)
		require.ErrorIs(t, err, agent.ErrGenomeLength)
	})
}

func TestTrain(t *testing.T) {
	t.Run("running the configured number of generations", func(t *testing.T) {
		var reported []GenerationRecord
		tr, err := New(quick(WithReporter(ReporterFunc(func(r GenerationRecord) {
			reported = append(reported, r)
		})))...)
		require.NoError(t, err)

		res, err := tr.Train(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopGenerations, res.Reason)
		require.Len(t, res.History, 4)
		require.Equal(t, res.History, reported, "Every record should reach the reporter")
		for i, rec := range res.History {
			require.Equal(t, i, rec.Generation)
			require.Equal(t, 8, rec.Evaluated)
			require.Zero(t, rec.Failures)
			require.GreaterOrEqual(t, rec.Best, rec.Mean)
			require.GreaterOrEqual(t, rec.Mean, rec.Worst)
			require.Len(t, rec.BestGenome, game.FeaturesV1.Len())
		}
		require.Equal(t, 3, res.Population.Generation)
		require.Equal(t, res.History[3].Best, res.Best.Fitness)
	})

	t.Run("elitism never loses the best fitness", func(t *testing.T) {
		tr, err := New(quick(
			WithGenerations(6),
			WithElitism(2),
			WithMutator(Gaussian{Rate: 0.5, Sigma: 1}),
		)...)
		require.NoError(t, err)

		res, err := tr.Train(context.Background())

		require.NoError(t, err)
		for i := 1; i < len(res.History); i++ {
			require.GreaterOrEqual(t, res.History[i].Best, res.History[i-1].Best, "Generation %d", i)
		}
	})

	t.Run("same seed trains the same genomes", func(t *testing.T) {
		run := func() Result {
			tr, err := New(quick(WithWorkers(3))...)
			require.NoError(t, err)
			res, err := tr.Train(context.Background())
			require.NoError(t, err)
			return res
		}

		a, b := run(), run()

		require.True(t, a.Best.Genome.Equal(b.Best.Genome))
		for i := range a.History {
			require.Equal(t, a.History[i].Best, b.History[i].Best)
			require.Equal(t, a.History[i].Mean, b.History[i].Mean)
		}
	})

	t.Run("stopping when the best stops improving", func(t *testing.T) {
		// Without variation children copy their parents, so nothing beats generation zero.
		tr, err := New(quick(
			WithGenerations(20),
			WithStagnation(2),
			WithCrossover(Uniform{Mix: 0.5}, 0),
			WithMutator(Gaussian{Rate: 0, Sigma: 0}),
		)...)
		require.NoError(t, err)

		res, err := tr.Train(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopStagnation, res.Reason)
		require.Len(t, res.History, 3)
	})

	t.Run("stopping when the mean converges", func(t *testing.T) {
		tr, err := New(quick(
			WithGenerations(50),
			WithMinImprovement(100),
		)...)
		require.NoError(t, err)

		res, err := tr.Train(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopConverged, res.Reason)
		require.Len(t, res.History, convergenceWarmup, "Convergence is only tested after the warmup")
	})

	t.Run("seeding generation zero", func(t *testing.T) {
		genomes := make([]agent.Genome, 8)
		for i := range genomes {
			genomes[i] = make(agent.Genome, game.FeaturesV1.Len())
			genomes[i][4] = float64(i)
		}
		var first GenerationRecord
		tr, err := New(quick(
			WithGenerations(1),
			WithInitialPopulation(genomes),
			WithReporter(ReporterFunc(func(r GenerationRecord) { first = r })),
		)...)
		require.NoError(t, err)

		res, err := tr.Train(context.Background())

		require.NoError(t, err)
		require.Equal(t, genomes, res.Population.Genomes())
		require.Equal(t, 0, first.Generation)
	})

	t.Run("cancellation returns the last complete generation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		tr, err := New(quick(
			WithGenerations(10),
			WithReporter(ReporterFunc(func(r GenerationRecord) {
				if r.Generation == 1 {
					cancel()
				}
			})),
		)...)
		require.NoError(t, err)

		res, err := tr.Train(ctx)

		require.True(t, errors.Is(err, context.Canceled))
		require.Equal(t, StopCancelled, res.Reason)
		require.Len(t, res.History, 2)
		require.Equal(t, 1, res.Population.Generation)
		require.Len(t, res.Population.Evaluated(), 8)
	})

	t.Run("fanning records out to several reporters", func(t *testing.T) {
		var a, b int
		tr, err := New(quick(WithReporter(MultiReporter(
			ReporterFunc(func(GenerationRecord) { a++ }),
			ReporterFunc(func(GenerationRecord) { b++ }),
		)))...)
		require.NoError(t, err)

		_, err = tr.Train(context.Background())

		require.NoError(t, err)
		require.Equal(t, 4, a)
		require.Equal(t, 4, b)
	})
}

package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"tetris/agent"
	"tetris/config"
	"tetris/engine"
	"tetris/experiments/metrics"
	"tetris/game"
	"tetris/trainer"
)

var (
	selectionMethods = []string{"roulette", "tournament", "rank"}
	mutationMethods  = []string{"gaussian", "noisy", "flip", "reset", "swap"}
)

// Outcome is a finished run and where its files were written.
type Outcome struct {
	RunID  string
	Dir    string
	Result trainer.Result
}

// Run trains once with cfg and writes the run configuration, generation
// history, best genome and fitness plot under cfg.Output.Dir. When a database
// is configured the run is also appended to it. Outputs are written for the
// generations that completed even if training was cancelled.
func Run(ctx context.Context, cfg config.Config) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return Outcome{}, err
	}

	runID := metrics.NewRunID()
	writer, err := metrics.NewWriter(cfg.Output.Dir, cfg.Output.Experiment, runID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	out := Outcome{RunID: runID, Dir: writer.Dir()}

	if err := writer.WriteRunConfig(cfg); err != nil {
		return out, err
	}
	log.Info().Msg("stored run config")

	if cfg.Output.ResumeFrom != "" {
		pop, err := trainer.LoadPopulation(cfg.Output.ResumeFrom, game.FeaturesV1)
		if err != nil {
			return out, &trainer.ConfigurationError{Field: "output.resume_from", Reason: "cannot load population", Err: err}
		}
		opts = append(opts, trainer.WithInitialPopulation(pop.Genomes()))
		log.Info().Msgf("resuming from %d genomes in %s", pop.Len(), cfg.Output.ResumeFrom)
	}

	recorder := metrics.NewRecorder()
	reporters := []trainer.Reporter{recorder}

	// Cancellation stops training, not the bookkeeping of what was trained.
	persistCtx := context.WithoutCancel(ctx)
	var store *metrics.Store
	if cfg.Output.Database != "" {
		store, err = metrics.OpenStore(persistCtx, cfg.Output.Database)
		if err != nil {
			return out, err
		}
		defer store.Close()
		reporters = append(reporters, trainer.ReporterFunc(func(rec trainer.GenerationRecord) {
			if err := store.SaveGenerations(persistCtx, runID, []trainer.GenerationRecord{rec}); err != nil {
				log.Warn().Err(err).Msgf("failed to store generation %d", rec.Generation)
			}
		}))
	}
	opts = append(opts, trainer.WithReporter(trainer.MultiReporter(reporters...)))

	tr, err := trainer.New(opts...)
	if err != nil {
		return out, err
	}

	log.Info().Msgf("starting run %s of %s experiment...", runID, cfg.Output.Experiment)
	started := time.Now()
	res, trainErr := tr.Train(ctx)
	out.Result = res

	records := recorder.Records()
	if len(records) == 0 {
		return out, trainErr
	}

	if err := writer.WriteGenerations(records); err != nil {
		return out, err
	}
	log.Info().Msg("stored generation records")

	if err := writer.WriteBestGenome(res.Best.Genome, game.FeaturesV1); err != nil {
		return out, err
	}
	log.Info().Msg("stored best genome")

	if cfg.Output.Plot {
		if err := metrics.PlotHistory(records, cfg.Output.Experiment, writer.Path("fitness.png")); err != nil {
			return out, err
		}
	}
	if cfg.Output.PopulationFile != "" {
		if err := trainer.SavePopulation(writer.Path(cfg.Output.PopulationFile), res.Population, game.FeaturesV1); err != nil {
			return out, err
		}
	}

	var pieces, playouts int
	for _, rec := range records {
		pieces += rec.Pieces
		playouts += rec.Playouts
	}
	summary := metrics.Summary{
		RunID:       runID,
		Experiment:  cfg.Output.Experiment,
		Reason:      res.Reason,
		Generations: len(records),
		BestFitness: res.Best.Fitness,
		Pieces:      pieces,
		Playouts:    playouts,
	}
	if err := writer.WriteSummary(summary); err != nil {
		return out, err
	}

	if store != nil {
		err := store.SaveRun(persistCtx, metrics.Run{
			ID:          runID,
			Experiment:  cfg.Output.Experiment,
			StartedAt:   started,
			Seed:        cfg.Seed,
			Reason:      res.Reason,
			Generations: len(records),
			BestFitness: res.Best.Fitness,
			BestGenome:  res.Best.Genome,
		})
		if err != nil {
			return out, err
		}
	}

	elapsed := time.Since(started)
	log.Info().Msgf("completed run %s after %d generations (%s): best fitness %.3f, %s pieces in %s playouts, %s",
		runID, len(records), res.Reason, res.Best.Fitness, humanize.Comma(int64(pieces)), humanize.Comma(int64(playouts)),
		elapsed.Round(time.Millisecond))
	return out, trainErr
}

// RunSelectionComparison trains once per selection method with everything
// else held fixed.
func RunSelectionComparison(ctx context.Context, cfg config.Config) ([]Outcome, error) {
	return sweep(ctx, cfg, "selection", selectionMethods, func(c *config.Config, method string) {
		c.Selection.Method = method
	})
}

// RunMutationComparison trains once per mutation policy with everything else
// held fixed.
func RunMutationComparison(ctx context.Context, cfg config.Config) ([]Outcome, error) {
	return sweep(ctx, cfg, "mutation", mutationMethods, func(c *config.Config, method string) {
		c.Mutation.Method = method
	})
}

func sweep(ctx context.Context, cfg config.Config, name string, methods []string, apply func(*config.Config, string)) ([]Outcome, error) {
	log.Info().Msgf("starting %s comparison over %d methods...", name, len(methods))

	var outcomes []Outcome
	for i, method := range methods {
		c := cfg
		apply(&c, method)
		c.Output.Experiment = fmt.Sprintf("%s_%s_%s", cfg.Output.Experiment, name, method)

		log.Info().Msgf("starting %s %d of %d: %s", name, i+1, len(methods), method)
		out, err := Run(ctx, c)
		if err != nil {
			return outcomes, fmt.Errorf("%s %s: %w", name, method, err)
		}
		outcomes = append(outcomes, out)
		log.Info().Msgf("completed %s %d of %d: best fitness %.3f", name, i+1, len(methods), out.Result.Best.Fitness)
	}

	log.Info().Msgf("completed %s comparison", name)
	return outcomes, nil
}

// Replay plays one game with g on the configured board, sending every frame
// to r.
func Replay(ctx context.Context, cfg config.Config, g agent.Genome, r game.Renderer) (engine.Result, error) {
	a, err := agent.NewAgent(g, game.FeaturesV1)
	if err != nil {
		return engine.Result{}, err
	}
	seq, err := game.NewSequencer(cfg.Sequencer, cfg.Seed)
	if err != nil {
		return engine.Result{}, err
	}

	res, err := engine.NewPlayout(a, seq, cfg.Board.Width, cfg.Board.Height,
		engine.WithMaxSteps(cfg.MaxSteps), engine.WithRenderer(r)).Run(ctx)
	if err != nil {
		return res, err
	}
	log.Info().Msgf("replay finished: %s pieces, %s lines, max height %d", humanize.Comma(int64(res.Pieces)), humanize.Comma(int64(res.Lines)), res.MaxHeight)
	return res, nil
}

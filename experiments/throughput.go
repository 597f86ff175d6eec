package experiments

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"tetris/config"
	"tetris/experiments/metrics"
	"tetris/game"
	"tetris/trainer"
)

// RunThroughputExperiment evaluates the same random population with a
// growing worker pool and reports the playout rate of each pool size.
func RunThroughputExperiment(ctx context.Context, cfg config.Config) ([]metrics.ThroughputRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metric, err := trainer.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	pop := trainer.NewRandomPopulation(cfg.PopulationSize, game.FeaturesV1.Len(), cfg.InitMin, cfg.InitMax, rand.New(rand.NewSource(cfg.Seed)))
	seeds := trainer.PlayoutSeeds(cfg.Seed, cfg.Playouts)

	log.Info().Msg("starting throughput experiment...")

	var records []metrics.ThroughputRecord
	for workers := 1; workers <= runtime.NumCPU(); workers *= 2 {
		e := trainer.NewEvaluator(trainer.EvaluatorConfig{
			Workers:   workers,
			Width:     cfg.Board.Width,
			Height:    cfg.Board.Height,
			MaxSteps:  cfg.MaxSteps,
			Features:  game.FeaturesV1,
			Sequencer: cfg.Sequencer,
			Seeds:     seeds,
			Metric:    metric,
			Metrics:   trainer.NewCollector(),
		})

		_, m, err := e.Evaluate(ctx, pop)
		if err != nil {
			return records, err
		}

		rec := metrics.ThroughputRecord{
			Workers:  m.Workers,
			Playouts: m.Playouts,
			Pieces:   m.Pieces,
			Duration: m.Duration,
		}
		records = append(records, rec)
		log.Info().Msgf("%d workers: %s playouts, %s pieces/s in %s",
			workers, humanize.Comma(int64(m.Playouts)), humanize.SIWithDigits(rec.PiecesPerSecond(), 1, ""), m.Duration.Round(time.Millisecond))
	}

	writer, err := metrics.NewWriter(cfg.Output.Dir, cfg.Output.Experiment+"_throughput", metrics.NewRunID())
	if err != nil {
		return records, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteThroughput(records); err != nil {
		return records, err
	}
	log.Info().Msg("completed throughput experiment")
	return records, nil
}

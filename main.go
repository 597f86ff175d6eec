package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tetris/agent"
	"tetris/config"
	"tetris/experiments"
	"tetris/game"
	"tetris/render"
)

func main() {
	configPath := flag.String("config", "", "TOML experiment configuration, defaults when empty")
	experiment := flag.String("experiment", "train", "One of train, selection, mutation, throughput")
	genomePath := flag.String("genome", "", "Replay a saved genome instead of training")
	serveAddr := flag.String("serve", "", "Serve decisions of the -genome agent on this address")
	delay := flag.Duration("delay", 50*time.Millisecond, "Delay between replayed frames")
	noRender := flag.Bool("quiet", false, "Replay without drawing the board")
	verbose := flag.Bool("v", false, "Log every playout")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *experiment, *genomePath, *serveAddr, *delay, *noRender); err != nil {
		log.Error().Err(err).Msg("run failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, experiment, genomePath, serveAddr string, delay time.Duration, quiet bool) error {
	if genomePath != "" {
		g, err := agent.LoadGenome(genomePath, game.FeaturesV1.Version)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			a, err := agent.NewAgent(g, game.FeaturesV1)
			if err != nil {
				return err
			}
			log.Info().Msgf("serving %s on %s", genomePath, serveAddr)
			return agent.Serve(serveAddr, a, cfg.Board.Width, cfg.Board.Height)
		}

		var r game.Renderer = game.NopRenderer
		if !quiet {
			r = render.NewTerminal(os.Stdout, render.WithDelay(delay))
		}
		_, err = experiments.Replay(ctx, cfg, g, r)
		return err
	}

	switch experiment {
	case "train":
		out, err := experiments.Run(ctx, cfg)
		if out.Dir != "" {
			log.Info().Msgf("outputs written to %s", out.Dir)
		}
		return err
	case "selection":
		_, err := experiments.RunSelectionComparison(ctx, cfg)
		return err
	case "mutation":
		_, err := experiments.RunMutationComparison(ctx, cfg)
		return err
	case "throughput":
		_, err := experiments.RunThroughputExperiment(ctx, cfg)
		return err
	default:
		return fmt.Errorf("unknown experiment %q", experiment)
	}
}

// Package config reads training settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"tetris/game"
	"tetris/meta"
	"tetris/trainer"
)

type Config struct {
	Seed           uint64    `toml:"seed"`
	Board          Board     `toml:"board"`
	PopulationSize int       `toml:"population_size"`
	Generations    int       `toml:"generations"`
	Stagnation     int       `toml:"stagnation"`
	MinImprovement float64   `toml:"min_improvement"`
	Workers        int       `toml:"workers"`
	Playouts       int       `toml:"playouts"`
	MaxSteps       int       `toml:"max_steps"`
	Metric         string    `toml:"metric"`
	Sequencer      string    `toml:"sequencer"`
	Elitism        int       `toml:"elitism"`
	InitMin        float64   `toml:"init_min"`
	InitMax        float64   `toml:"init_max"`
	Selection      Selection `toml:"selection"`
	Crossover      Crossover `toml:"crossover"`
	Mutation       Mutation  `toml:"mutation"`
	Output         Output    `toml:"output"`
}

type Board struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Selection struct {
	Method         string  `toml:"method"` // roulette, tournament or rank
	Power          float64 `toml:"power"`
	TournamentSize int     `toml:"tournament_size"`
}

type Crossover struct {
	Method string  `toml:"method"` // uniform, one-point or k-point
	Rate   float64 `toml:"rate"`
	Mix    float64 `toml:"mix"`
	Points int     `toml:"points"`
}

type Mutation struct {
	Method string  `toml:"method"` // gaussian, noisy, flip, reset or swap
	Rate   float64 `toml:"rate"`
	Volume float64 `toml:"volume"`
	Min    float64 `toml:"min"`
	Max    float64 `toml:"max"`
}

type Output struct {
	Dir            string `toml:"dir"`
	Experiment     string `toml:"experiment"`
	Database       string `toml:"database"` // sqlite file, empty disables the run history
	Plot           bool   `toml:"plot"`
	PopulationFile string `toml:"population_file"`
	ResumeFrom     string `toml:"resume_from"`
}

// Default returns the settings used for anything a file leaves out.
func Default() Config {
	return Config{
		Seed:           meta.SEED,
		Board:          Board{Width: meta.BOARD_WIDTH, Height: meta.BOARD_HEIGHT},
		PopulationSize: meta.POPULATION_SIZE,
		Generations:    meta.GENERATIONS,
		Stagnation:     meta.STAGNATION,
		MinImprovement: meta.MIN_IMPROVEMENT,
		Workers:        meta.WORKERS,
		Playouts:       meta.PLAYOUTS,
		MaxSteps:       meta.MAX_STEPS,
		Metric:         string(trainer.MetricCombined),
		Sequencer:      game.RandomSequence,
		Elitism:        meta.ELITISM,
		InitMin:        meta.INIT_MIN,
		InitMax:        meta.INIT_MAX,
		Selection:      Selection{Method: "roulette", Power: 2, TournamentSize: 3},
		Crossover:      Crossover{Method: "uniform", Rate: meta.CROSSOVER_RATE, Mix: 0.5, Points: 2},
		Mutation:       Mutation{Method: "gaussian", Rate: meta.MUTATION_RATE, Volume: meta.MUTATION_SIGMA, Min: meta.INIT_MIN, Max: meta.INIT_MAX},
		Output:         Output{Dir: "experiments", Experiment: "train", Plot: true},
	}
}

// Load decodes path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, &trainer.ConfigurationError{Field: path, Reason: "cannot decode", Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, &trainer.ConfigurationError{Field: path, Reason: "unknown keys " + strings.Join(keys, ", ")}
	}
	return cfg, nil
}

// Options translates the configuration into trainer options.
func (c Config) Options() ([]trainer.Option, error) {
	selector, err := trainer.NewSelector(c.Selection.Method, c.Selection.Power, c.Selection.TournamentSize)
	if err != nil {
		return nil, &trainer.ConfigurationError{Field: "selection.method", Reason: "unsupported", Err: err}
	}
	crossover, err := trainer.NewCrossover(c.Crossover.Method, c.Crossover.Mix, c.Crossover.Points)
	if err != nil {
		return nil, &trainer.ConfigurationError{Field: "crossover.method", Reason: "unsupported", Err: err}
	}
	mutator, err := trainer.NewMutator(c.Mutation.Method, c.Mutation.Rate, c.Mutation.Volume, c.Mutation.Min, c.Mutation.Max)
	if err != nil {
		return nil, &trainer.ConfigurationError{Field: "mutation.method", Reason: "unsupported", Err: err}
	}
	metric, err := trainer.ParseMetric(c.Metric)
	if err != nil {
		return nil, &trainer.ConfigurationError{Field: "metric", Reason: "unsupported", Err: err}
	}

	return []trainer.Option{
		trainer.WithSeed(c.Seed),
		trainer.WithBoard(c.Board.Width, c.Board.Height),
		trainer.WithPopulationSize(c.PopulationSize),
		trainer.WithGenerations(c.Generations),
		trainer.WithStagnation(c.Stagnation),
		trainer.WithMinImprovement(c.MinImprovement),
		trainer.WithWorkers(c.Workers),
		trainer.WithPlayouts(c.Playouts),
		trainer.WithMaxSteps(c.MaxSteps),
		trainer.WithMetric(metric),
		trainer.WithSequencer(c.Sequencer),
		trainer.WithElitism(c.Elitism),
		trainer.WithInitRange(c.InitMin, c.InitMax),
		trainer.WithSelector(selector),
		trainer.WithCrossover(crossover, c.Crossover.Rate),
		trainer.WithMutator(mutator),
	}, nil
}

// Validate reports the first invalid setting as a *trainer.ConfigurationError.
func (c Config) Validate() error {
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if _, err := trainer.New(opts...); err != nil {
		return err
	}
	if c.Output.Experiment == "" || strings.ContainsAny(c.Output.Experiment, `/\`) {
		return &trainer.ConfigurationError{Field: "output.experiment", Reason: fmt.Sprintf("invalid name %q", c.Output.Experiment)}
	}
	return nil
}

// IsConfigurationError reports whether err came from a rejected setting.
func IsConfigurationError(err error) bool {
	return errors.Is(err, trainer.ErrConfiguration)
}

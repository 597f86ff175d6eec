package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tetris/agent"
	"tetris/config"
	"tetris/game"
	"tetris/trainer"
)

type Writer struct {
	baseDir string
}

// NewWriter creates <dir>/<experiment>/<runID> for the files of one run.
func NewWriter(dir, experiment, runID string) (*Writer, error) {
	baseDir := filepath.Join(dir, experiment, runID)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) Path(name string) string {
	return filepath.Join(w.baseDir, name)
}

func (w *Writer) WriteRunConfig(cfg config.Config) error {
	// Create a file
	f, err := os.Create(w.Path("run_config.csv"))
	if err != nil {
		return fmt.Errorf("failed to create run config file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	rows := [][]string{
		{"key", "value"},
		{"seed", strconv.FormatUint(cfg.Seed, 10)},
		{"board_width", strconv.Itoa(cfg.Board.Width)},
		{"board_height", strconv.Itoa(cfg.Board.Height)},
		{"population_size", strconv.Itoa(cfg.PopulationSize)},
		{"generations", strconv.Itoa(cfg.Generations)},
		{"stagnation", strconv.Itoa(cfg.Stagnation)},
		{"min_improvement", formatFloat(cfg.MinImprovement)},
		{"workers", strconv.Itoa(cfg.Workers)},
		{"playouts", strconv.Itoa(cfg.Playouts)},
		{"max_steps", strconv.Itoa(cfg.MaxSteps)},
		{"metric", cfg.Metric},
		{"sequencer", cfg.Sequencer},
		{"elitism", strconv.Itoa(cfg.Elitism)},
		{"init_min", formatFloat(cfg.InitMin)},
		{"init_max", formatFloat(cfg.InitMax)},
		{"selection", cfg.Selection.Method},
		{"selection_power", formatFloat(cfg.Selection.Power)},
		{"tournament_size", strconv.Itoa(cfg.Selection.TournamentSize)},
		{"crossover", cfg.Crossover.Method},
		{"crossover_rate", formatFloat(cfg.Crossover.Rate)},
		{"crossover_mix", formatFloat(cfg.Crossover.Mix)},
		{"crossover_points", strconv.Itoa(cfg.Crossover.Points)},
		{"mutation", cfg.Mutation.Method},
		{"mutation_rate", formatFloat(cfg.Mutation.Rate)},
		{"mutation_volume", formatFloat(cfg.Mutation.Volume)},
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write run config row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteGenerations(records []trainer.GenerationRecord) error {
	// Create a file
	f, err := os.Create(w.Path("generations.csv"))
	if err != nil {
		return fmt.Errorf("failed to create generations file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"generation", "best", "mean", "worst", "evaluated", "failures", "playouts", "pieces", "lines", "duration", "best_genome"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write generations header: %w", err)
	}

	// Write each row
	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Generation),
			formatFloat(record.Best),
			formatFloat(record.Mean),
			formatFloat(record.Worst),
			strconv.Itoa(record.Evaluated),
			strconv.Itoa(record.Failures),
			strconv.Itoa(record.Playouts),
			strconv.Itoa(record.Pieces),
			strconv.Itoa(record.Lines),
			record.Duration.String(),
			agent.Encode(record.BestGenome),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write generation row: %w", err)
		}
	}

	return nil
}

// WriteBestGenome stores the genome in the format agent.LoadGenome reads.
func (w *Writer) WriteBestGenome(g agent.Genome, features game.FeatureSet) error {
	return agent.SaveGenome(w.Path("best_genome.json"), g, features.Version, features.Names())
}

type Summary struct {
	RunID       string             `json:"runId"`
	Experiment  string             `json:"experiment"`
	Reason      trainer.StopReason `json:"reason"`
	Generations int                `json:"generations"`
	BestFitness float64            `json:"bestFitness"`
	Pieces      int                `json:"pieces"`
	Playouts    int                `json:"playouts"`
}

func (w *Writer) WriteSummary(s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(w.Path("summary.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type ThroughputRecord struct {
	Workers  int
	Playouts int
	Pieces   int
	Duration time.Duration
}

func (r ThroughputRecord) PiecesPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Pieces) / r.Duration.Seconds()
}

func (w *Writer) WriteThroughput(records []ThroughputRecord) error {
	// Create a file
	f, err := os.Create(w.Path("throughput.csv"))
	if err != nil {
		return fmt.Errorf("failed to create throughput file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"workers", "playouts", "pieces", "duration", "pieces_per_second"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write throughput header: %w", err)
	}

	// Write each row
	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Workers),
			strconv.Itoa(record.Playouts),
			strconv.Itoa(record.Pieces),
			record.Duration.String(),
			formatFloat(record.PiecesPerSecond()),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write throughput row: %w", err)
		}
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tetris/trainer"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, Default().Validate())
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeFile(t, `
seed = 42
population_size = 20
metric = "lines"

[board]
width = 8

[selection]
method = "tournament"
tournament_size = 4

[mutation]
method = "noisy"
rate = 0.2
volume = 0.1
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		require.Equal(t, uint64(42), cfg.Seed)
		require.Equal(t, 20, cfg.PopulationSize)
		require.Equal(t, "lines", cfg.Metric)
		require.Equal(t, 8, cfg.Board.Width)
		require.Equal(t, Default().Board.Height, cfg.Board.Height, "Unset keys keep their default")
		require.Equal(t, "tournament", cfg.Selection.Method)
		require.Equal(t, 4, cfg.Selection.TournamentSize)
		require.Equal(t, Default().Crossover, cfg.Crossover)
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejecting unknown keys", func(t *testing.T) {
		_, err := Load(writeFile(t, "populaton_size = 3\n"))

		require.True(t, IsConfigurationError(err))
		require.ErrorContains(t, err, "populaton_size")
	})

	t.Run("rejecting malformed files", func(t *testing.T) {
		_, err := Load(writeFile(t, "seed = [\n"))
		require.ErrorIs(t, err, trainer.ErrConfiguration)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		require.ErrorIs(t, err, trainer.ErrConfiguration)
	})
}

func TestValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		mutate func(*Config)
		field  string
	}{
		"unknown selection":  {func(c *Config) { c.Selection.Method = "lottery" }, "selection.method"},
		"unknown crossover":  {func(c *Config) { c.Crossover.Method = "zip" }, "crossover.method"},
		"unknown mutation":   {func(c *Config) { c.Mutation.Method = "scramble" }, "mutation.method"},
		"unknown metric":     {func(c *Config) { c.Metric = "score" }, "metric"},
		"tiny population":    {func(c *Config) { c.PopulationSize = 1 }, "population_size"},
		"narrow board":       {func(c *Config) { c.Board.Width = 3 }, "board"},
		"bad crossover rate": {func(c *Config) { c.Crossover.Rate = -1 }, "crossover.rate"},
		"experiment path":    {func(c *Config) { c.Output.Experiment = "../x" }, "output.experiment"},
	} {
		t.Run("rejecting "+name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()

			var cfgErr *trainer.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

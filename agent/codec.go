package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Encode writes the genome as comma separated weights using the shortest
// representation that parses back to the same float64.
func Encode(g Genome) string {
	parts := make([]string, len(g))
	for i, w := range g {
		parts[i] = strconv.FormatFloat(w, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Decode parses the output of Encode.
func Decode(s string) (Genome, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Genome{}, nil
	}
	parts := strings.Split(s, ",")
	g := make(Genome, len(parts))
	for i, part := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i, err)
		}
		g[i] = w
	}
	return g, nil
}

func (g Genome) MarshalText() ([]byte, error) {
	return []byte(Encode(g)), nil
}

func (g *Genome) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}

type genomeFile struct {
	FeatureSet string    `json:"feature_set"`
	Names      []string  `json:"features,omitempty"`
	Weights    []float64 `json:"weights"`
}

// SaveGenome writes g as a JSON document tagged with the feature set version.
func SaveGenome(path string, g Genome, version string, names []string) error {
	data, err := json.MarshalIndent(genomeFile{FeatureSet: version, Names: names, Weights: g}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode genome: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write genome file: %w", err)
	}
	return nil
}

// LoadGenome reads a genome written by SaveGenome and checks that it was
// trained against the given feature set version.
func LoadGenome(path, version string) (Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genome file: %w", err)
	}
	var f genomeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode genome file %s: %w", path, err)
	}
	if f.FeatureSet != version {
		return nil, fmt.Errorf("genome %s was trained on feature set %q, want %q", path, f.FeatureSet, version)
	}
	return Genome(f.Weights), nil
}

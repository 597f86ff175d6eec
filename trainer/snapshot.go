package trainer

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"tetris/agent"
	"tetris/game"
)

type populationFile struct {
	Generation  int                `toml:"generation"`
	FeatureSet  string             `toml:"feature_set"`
	Features    []string           `toml:"features"`
	Individuals []individualRecord `toml:"individual"`
}

type individualRecord struct {
	Genome    agent.Genome `toml:"genome"`
	Fitness   float64      `toml:"fitness"`
	Evaluated bool         `toml:"evaluated"`
	Failed    bool         `toml:"failed,omitempty"`
}

// SavePopulation writes pop as a TOML document tagged with the feature set
// the genomes were trained against.
func SavePopulation(path string, pop *Population, features game.FeatureSet) error {
	doc := populationFile{
		Generation:  pop.Generation,
		FeatureSet:  features.Version,
		Features:    features.Names(),
		Individuals: make([]individualRecord, len(pop.Individuals)),
	}
	for i, ind := range pop.Individuals {
		doc.Individuals[i] = individualRecord{
			Genome:    ind.Genome,
			Fitness:   ind.Fitness,
			Evaluated: ind.Evaluated,
			Failed:    ind.Failed,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create population file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode population: %w", err)
	}
	return nil
}

// LoadPopulation reads a snapshot written by SavePopulation. Every genome must
// match the given feature set.
func LoadPopulation(path string, features game.FeatureSet) (*Population, error) {
	var doc populationFile
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode population file %s: %w", path, err)
	}
	if doc.FeatureSet != features.Version {
		return nil, fmt.Errorf("population %s was trained on feature set %q, want %q", path, doc.FeatureSet, features.Version)
	}

	pop := &Population{Generation: doc.Generation, Individuals: make([]Individual, len(doc.Individuals))}
	for i, rec := range doc.Individuals {
		if rec.Genome.Len() != features.Len() {
			return nil, fmt.Errorf("individual %d: %w: got %d weights, want %d", i, agent.ErrGenomeLength, rec.Genome.Len(), features.Len())
		}
		pop.Individuals[i] = Individual{
			Genome:    rec.Genome,
			Fitness:   rec.Fitness,
			Evaluated: rec.Evaluated,
			Failed:    rec.Failed,
		}
	}
	return pop, nil
}

// Genomes returns copies of every genome in population order.
func (p *Population) Genomes() []agent.Genome {
	out := make([]agent.Genome, len(p.Individuals))
	for i, ind := range p.Individuals {
		out[i] = ind.Genome.Clone()
	}
	return out
}

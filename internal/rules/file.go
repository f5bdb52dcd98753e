package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tournament is the static configuration of a tournament: scoring rules and
// the official roster.
type Tournament struct {
	Table  Table
	Roster *Roster
}

type tournamentFile struct {
	Teams            []Team          `yaml:"teams"`
	Scoring          Table           `yaml:"scoring"`
	RoundMultipliers map[int]float64 `yaml:"round_multipliers"`
}

// LoadFile reads a tournament YAML file. Parameters missing from the file keep
// their Default value.
func LoadFile(path string) (*Tournament, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a tournament document, see LoadFile.
func Parse(data []byte) (*Tournament, error) {
	d := Default()
	f := tournamentFile{
		Scoring:          d,
		RoundMultipliers: d.RoundMultipliers,
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rules: unmarshal: %w", err)
	}

	t := f.Scoring
	t.RoundMultipliers = f.RoundMultipliers
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r, err := NewRoster(f.Teams)
	if err != nil {
		return nil, err
	}

	return &Tournament{Table: t, Roster: r}, nil
}

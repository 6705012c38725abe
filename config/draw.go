package config

import (
	"fmt"
	"os"

	"github.com/Dosada05/tournament-draw/balance"
	"github.com/Dosada05/tournament-draw/brackets"
	"github.com/Dosada05/tournament-draw/groups"
	"gopkg.in/yaml.v3"
)

// DrawSettings tunes the group draw and the bracket builder. Missing keys
// keep their defaults.
type DrawSettings struct {
	Weights          balance.Weights `yaml:"weights"`
	BacktrackLimit   int             `yaml:"backtrack_limit"`
	SearchIterations int             `yaml:"search_iterations"`
	ConflictRadius   int             `yaml:"conflict_radius"`
	FixtureLegs      int             `yaml:"fixture_legs"`
}

func DefaultDrawSettings() DrawSettings {
	return DrawSettings{
		Weights:          balance.DefaultWeights(),
		BacktrackLimit:   groups.DefaultBacktrackLimit,
		SearchIterations: groups.DefaultSearchIterations,
		ConflictRadius:   brackets.DefaultConflictRadius,
		FixtureLegs:      1,
	}
}

// LoadDrawSettings reads a YAML settings file on top of the defaults.
func LoadDrawSettings(path string) (DrawSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DrawSettings{}, fmt.Errorf("read draw settings %s: %w", path, err)
	}
	return ParseDrawSettings(raw)
}

func ParseDrawSettings(raw []byte) (DrawSettings, error) {
	s := DefaultDrawSettings()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return DrawSettings{}, fmt.Errorf("parse draw settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return DrawSettings{}, err
	}
	return s, nil
}

func (s DrawSettings) Validate() error {
	if err := s.Weights.Validate(); err != nil {
		return fmt.Errorf("draw settings: %w", err)
	}
	if s.BacktrackLimit <= 0 {
		return fmt.Errorf("draw settings: backtrack_limit must be positive, got %d", s.BacktrackLimit)
	}
	if s.SearchIterations < 0 {
		return fmt.Errorf("draw settings: search_iterations must not be negative, got %d", s.SearchIterations)
	}
	if s.ConflictRadius < 1 {
		return fmt.Errorf("draw settings: conflict_radius must be at least 1, got %d", s.ConflictRadius)
	}
	if s.FixtureLegs != 1 && s.FixtureLegs != 2 {
		return fmt.Errorf("draw settings: fixture_legs must be 1 or 2, got %d", s.FixtureLegs)
	}
	return nil
}

// GroupOptions converts the settings into engine options without a random source.
func (s DrawSettings) GroupOptions() groups.Options {
	return groups.Options{
		Weights:          s.Weights,
		BacktrackLimit:   s.BacktrackLimit,
		SearchIterations: s.SearchIterations,
	}
}

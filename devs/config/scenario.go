// Package config loads and validates the YAML scenario files the run and
// validate subcommands consume: which driver to use (sequential or
// optimistic Time Warp), the simulation horizon, and which fixture scenario
// from devs/models to wire up.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects which driver runs the scenario.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeOptimistic Mode = "optimistic"
)

var validModes = map[Mode]bool{ModeSequential: true, ModeOptimistic: true}

var validScenarioKinds = map[string]bool{
	"decay":          true,
	"fire_grid":      true,
	"hybrid_reset":   true,
	"mealy_triangle": true,
}

// ScenarioConfig is the top-level configuration for a run.
type ScenarioConfig struct {
	Version    string            `yaml:"version"`
	Seed       int64             `yaml:"seed"`
	Mode       Mode              `yaml:"mode"`
	Horizon    float64           `yaml:"horizon"`
	Optimistic *OptimisticConfig `yaml:"optimistic,omitempty"`
	Scenario   ScenarioSpec      `yaml:"scenario"`
}

// OptimisticConfig tunes the Time Warp driver; only consulted when Mode is
// ModeOptimistic.
type OptimisticConfig struct {
	MaxBatchSize     int    `yaml:"max_batch_size"`
	MetricsNamespace string `yaml:"metrics_namespace,omitempty"`
}

// ScenarioSpec selects and parameterizes one of devs/models's fixtures.
// Exactly the field matching Kind should be set.
type ScenarioSpec struct {
	Kind        string               `yaml:"kind"`
	Decay       *DecayScenario       `yaml:"decay,omitempty"`
	FireGrid    *FireGridScenario    `yaml:"fire_grid,omitempty"`
	HybridReset *HybridResetScenario `yaml:"hybrid_reset,omitempty"`
}

// DecayScenario configures a population of models.DecayAgent.
type DecayScenario struct {
	Population int     `yaml:"population"`
	Rate       float64 `yaml:"rate"`
}

// FireGridScenario configures a models.BuildFireGrid run.
type FireGridScenario struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Fuel         int     `yaml:"fuel"`
	BurnDuration float64 `yaml:"burn_duration"`
	Ignite       [][2]int `yaml:"ignite"`
}

// HybridResetScenario configures a models.Generator/models.ResetBlock pair.
type HybridResetScenario struct {
	Period float64 `yaml:"period"`
}

// LoadScenarioConfig reads and parses the scenario file at path. Unknown
// YAML fields are rejected rather than silently ignored.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	var cfg ScenarioConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every field required to run the scenario is present
// and well-formed.
func (c *ScenarioConfig) Validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("unknown mode %q; valid: sequential, optimistic", c.Mode)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %f", c.Horizon)
	}
	if c.Mode == ModeOptimistic {
		if c.Optimistic == nil {
			return fmt.Errorf("optimistic block required when mode is %q", ModeOptimistic)
		}
		if c.Optimistic.MaxBatchSize <= 0 {
			return fmt.Errorf("optimistic.max_batch_size must be positive, got %d", c.Optimistic.MaxBatchSize)
		}
	}
	return c.Scenario.validate()
}

func (s *ScenarioSpec) validate() error {
	if !validScenarioKinds[s.Kind] {
		return fmt.Errorf("unknown scenario kind %q; valid: decay, fire_grid, hybrid_reset, mealy_triangle", s.Kind)
	}
	switch s.Kind {
	case "decay":
		if s.Decay == nil {
			return fmt.Errorf("scenario.decay required when kind is %q", s.Kind)
		}
		if s.Decay.Population <= 0 {
			return fmt.Errorf("scenario.decay.population must be positive, got %d", s.Decay.Population)
		}
		if s.Decay.Rate <= 0 {
			return fmt.Errorf("scenario.decay.rate must be positive, got %f", s.Decay.Rate)
		}
	case "fire_grid":
		if s.FireGrid == nil {
			return fmt.Errorf("scenario.fire_grid required when kind is %q", s.Kind)
		}
		if s.FireGrid.Width <= 0 || s.FireGrid.Height <= 0 {
			return fmt.Errorf("scenario.fire_grid width/height must be positive, got %dx%d", s.FireGrid.Width, s.FireGrid.Height)
		}
		if s.FireGrid.Fuel <= 0 {
			return fmt.Errorf("scenario.fire_grid.fuel must be positive, got %d", s.FireGrid.Fuel)
		}
		if s.FireGrid.BurnDuration <= 0 {
			return fmt.Errorf("scenario.fire_grid.burn_duration must be positive, got %f", s.FireGrid.BurnDuration)
		}
		for i, xy := range s.FireGrid.Ignite {
			if xy[0] < 0 || xy[0] >= s.FireGrid.Width || xy[1] < 0 || xy[1] >= s.FireGrid.Height {
				return fmt.Errorf("scenario.fire_grid.ignite[%d] = (%d,%d) is out of bounds for a %dx%d grid",
					i, xy[0], xy[1], s.FireGrid.Width, s.FireGrid.Height)
			}
		}
	case "hybrid_reset":
		if s.HybridReset == nil {
			return fmt.Errorf("scenario.hybrid_reset required when kind is %q", s.Kind)
		}
		if s.HybridReset.Period <= 0 {
			return fmt.Errorf("scenario.hybrid_reset.period must be positive, got %f", s.HybridReset.Period)
		}
	case "mealy_triangle":
		// no parameters: BuildMealyTriangle is fixed-shape
	}
	return nil
}

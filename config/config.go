// Package config implements YAML-backed configuration of training runs
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lgandara/dprl/agent/vpg"
)

// Environments that a training run can select with the environment
// setting
const (
	Cartpole   string = "cartpole"
	FlappyBird string = "flappybird"
)

// Config holds all hyperparameters and run settings of a training run
type Config struct {
	// Environment to train on
	Environment string `mapstructure:"environment"`

	// Training hyperparameters
	Epochs              int     `mapstructure:"epochs"`
	LR                  float64 `mapstructure:"lr"`
	HiddenLayerUnits    int     `mapstructure:"hidden-layer-units"`
	AdvantageExpression string  `mapstructure:"advantage-expression"`
	EpisodesPerEpoch    int     `mapstructure:"episodes-per-epoch"`
	MaxEpisodeSteps     int     `mapstructure:"max-episode-steps"`
	Seed                int64   `mapstructure:"seed"`

	// Run settings
	ProgressBar     bool   `mapstructure:"progress-bar"`
	TableLogFreq    int    `mapstructure:"table-log-freq"`
	RunDir          string `mapstructure:"run-dir"`
	CheckpointEvery int    `mapstructure:"checkpoint-every"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Environment:         Cartpole,
		Epochs:              50,
		LR:                  0.001,
		HiddenLayerUnits:    64,
		AdvantageExpression: "reward_to_go",
		EpisodesPerEpoch:    1,
		MaxEpisodeSteps:     500,
		Seed:                1923812121431427,
		ProgressBar:         true,
		TableLogFreq:        0,
		RunDir:              "runs",
		CheckpointEvery:     0,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Environment != Cartpole && c.Environment != FlappyBird {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("epochs must be positive")
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be positive")
	}
	if c.HiddenLayerUnits < 1 {
		return fmt.Errorf("hidden-layer-units must be positive")
	}
	if c.EpisodesPerEpoch < 1 {
		return fmt.Errorf("episodes-per-epoch must be positive")
	}
	if c.TableLogFreq < 0 {
		return fmt.Errorf("table-log-freq must not be negative")
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint-every must not be negative")
	}
	if _, err := vpg.ParseAdvantageMode(c.AdvantageExpression); err != nil {
		return err
	}
	return nil
}

// AdvantageMode returns the advantage-weighting policy the
// configuration selects
func (c *Config) AdvantageMode() (vpg.AdvantageMode, error) {
	return vpg.ParseAdvantageMode(c.AdvantageExpression)
}

// Load reads a configuration from the YAML file at path, layered over
// the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("load: could not read config file: %v", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load: could not unmarshal config: %v", err)
	}

	return cfg, nil
}

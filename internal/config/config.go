// Package config defines the replay tool's configuration surface (spec
// §6): time-series frequency, Dual Thrust parameters, and logging. Config
// is loaded from an optional YAML file with REPLAY_* environment
// variable overrides, in the style this corpus uses for CLI tools backed
// by viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for cmd/replay.
type Config struct {
	TimeSeries TimeSeriesConfig `mapstructure:"time_series"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TimeSeriesConfig tunes the Bar builder (spec §4.5).
type TimeSeriesConfig struct {
	Freq time.Duration `mapstructure:"freq"` // bar duration, multiple of one minute
}

// StrategyConfig tunes the Dual Thrust evaluator (spec §4.6).
//
//   - Lookback: n, number of bars strictly preceding t used for HH/LL.
//   - K1, K2: upper/lower band coefficients, must be > 0.
//   - OpenOffset, CloseOffset: trading window is [D-OpenOffset, D-CloseOffset].
type StrategyConfig struct {
	Lookback    int           `mapstructure:"lookback"`
	K1          float64       `mapstructure:"k1"`
	K2          float64       `mapstructure:"k2"`
	OpenOffset  time.Duration `mapstructure:"open_offset"`
	CloseOffset time.Duration `mapstructure:"close_offset"`
}

// LoggingConfig controls internal/replaylog's output.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug|info|warn|error
}

// Defaults matches spec §6: frequency defaults to one minute.
func Defaults() Config {
	return Config{
		TimeSeries: TimeSeriesConfig{Freq: time.Minute},
		Strategy: StrategyConfig{
			Lookback:    15,
			K1:          0.5,
			K2:          0.5,
			OpenOffset:  60 * time.Minute,
			CloseOffset: 15 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads an optional YAML file at path (skipped if path is empty) and
// layers REPLAY_* environment variables on top, starting from Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := Defaults()
	v.SetDefault("time_series.freq", cfg.TimeSeries.Freq)
	v.SetDefault("strategy.lookback", cfg.Strategy.Lookback)
	v.SetDefault("strategy.k1", cfg.Strategy.K1)
	v.SetDefault("strategy.k2", cfg.Strategy.K2)
	v.SetDefault("strategy.open_offset", cfg.Strategy.OpenOffset)
	v.SetDefault("strategy.close_offset", cfg.Strategy.CloseOffset)
	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetEnvPrefix("REPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges spec §4.6 and §6 require.
func (c *Config) Validate() error {
	if c.TimeSeries.Freq <= 0 {
		return fmt.Errorf("time_series.freq must be > 0")
	}
	if c.TimeSeries.Freq%time.Minute != 0 {
		return fmt.Errorf("time_series.freq must be a multiple of one minute")
	}
	if c.Strategy.Lookback <= 0 {
		return fmt.Errorf("strategy.lookback must be > 0")
	}
	if c.Strategy.K1 <= 0 {
		return fmt.Errorf("strategy.k1 must be > 0")
	}
	if c.Strategy.K2 <= 0 {
		return fmt.Errorf("strategy.k2 must be > 0")
	}
	if c.Strategy.OpenOffset < c.Strategy.CloseOffset {
		return fmt.Errorf("strategy.open_offset must be >= strategy.close_offset")
	}
	if c.Strategy.CloseOffset < 0 {
		return fmt.Errorf("strategy.close_offset must be >= 0")
	}
	return nil
}

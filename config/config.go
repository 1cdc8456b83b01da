package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete analysis tool configuration
type Config struct {
	RBN      RBNConfig      `yaml:"rbn"`
	Retry    RetryConfig    `yaml:"retry"`
	CTY      CTYConfig      `yaml:"cty"`
	Sampling SamplingConfig `yaml:"sampling"`
	Ranking  RankingConfig  `yaml:"ranking"`
}

// RBNConfig contains the spot data endpoint settings
type RBNConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-fetch deadline.
func (c RBNConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryConfig tunes the rate-limit auto-retry loop
type RetryConfig struct {
	Budget  int `yaml:"budget"`
	FloorMs int `yaml:"floor_ms"`
}

// Floor returns the minimum wait between retries.
func (c RetryConfig) Floor() time.Duration {
	return time.Duration(c.FloorMs) * time.Millisecond
}

// CTYConfig contains the prefix database settings
type CTYConfig struct {
	Sources        []string `yaml:"sources"`
	CacheDir       string   `yaml:"cache_dir"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout returns the per-source download deadline.
func (c CTYConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SamplingConfig bounds the point budget handed to chart consumers
type SamplingConfig struct {
	CapTotal   int `yaml:"cap_total"`
	MinPerBand int `yaml:"min_per_band"`
}

// RankingConfig tunes the signal-quality ranking
type RankingConfig struct {
	MinSamples int `yaml:"min_samples"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a YAML file and fills in defaults for
// anything the file left out.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RBN.Endpoint == "" {
		c.RBN.Endpoint = "https://azure.s53m.com/cors/rbn"
	}
	if c.RBN.TimeoutSeconds <= 0 {
		c.RBN.TimeoutSeconds = 15
	}
	if c.Retry.Budget <= 0 {
		c.Retry.Budget = 3
	}
	if c.Retry.FloorMs <= 0 {
		c.Retry.FloorMs = 1000
	}
	if len(c.CTY.Sources) == 0 {
		c.CTY.Sources = []string{
			"https://azure.s53m.com/cors/cty.dat",
			"https://www.country-files.com/cty/cty.dat",
		}
	}
	if c.CTY.TimeoutSeconds <= 0 {
		c.CTY.TimeoutSeconds = 20
	}
	if c.Sampling.CapTotal <= 0 {
		c.Sampling.CapTotal = 2000
	}
	if c.Sampling.MinPerBand <= 0 {
		c.Sampling.MinPerBand = 200
	}
	if c.Ranking.MinSamples <= 0 {
		c.Ranking.MinSamples = 4
	}
}

// Print displays the configuration
func (c *Config) Print() {
	fmt.Printf("RBN endpoint: %s (timeout %ds)\n", c.RBN.Endpoint, c.RBN.TimeoutSeconds)
	fmt.Printf("Retry: budget=%d floor=%dms\n", c.Retry.Budget, c.Retry.FloorMs)
	fmt.Printf("CTY sources: %s\n", strings.Join(c.CTY.Sources, ", "))
	if c.CTY.CacheDir != "" {
		fmt.Printf("CTY cache: %s\n", c.CTY.CacheDir)
	}
	fmt.Printf("Sampling: cap=%d min-per-band=%d\n", c.Sampling.CapTotal, c.Sampling.MinPerBand)
}

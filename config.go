package cqlmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/cqlmap/provider"
	"github.com/unkn0wn-root/cqlmap/provider/lru"
	"github.com/unkn0wn-root/cqlmap/provider/ristretto"
)

const (
	BackendLRU       = "lru"
	BackendRistretto = "ristretto"
)

// Config is the file form of Options:
//
//	max_dynamic: 10000
//	pressure_threshold: 0.8
//	backend: lru            # or ristretto
//	ristretto:
//	  num_counters: 100000
//	  buffer_items: 64
type Config struct {
	MaxDynamic        int             `yaml:"max_dynamic"`
	PressureThreshold float64         `yaml:"pressure_threshold"`
	Backend           string          `yaml:"backend"`
	Ristretto         RistrettoConfig `yaml:"ristretto"`
}

type RistrettoConfig struct {
	NumCounters int64 `yaml:"num_counters"`
	BufferItems int64 `yaml:"buffer_items"`
}

// ParseConfig decodes YAML, fills defaults and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

func setDefaults(cfg *Config) {
	if cfg.MaxDynamic == 0 {
		cfg.MaxDynamic = defaultMaxDynamic
	}
	if cfg.PressureThreshold == 0 {
		cfg.PressureThreshold = defaultPressureThreshold
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLRU
	}
}

func (c *Config) Validate() error {
	if c.MaxDynamic < 0 {
		return fmt.Errorf("max_dynamic must be positive, got %d", c.MaxDynamic)
	}
	if c.PressureThreshold < 0 || c.PressureThreshold > 1 {
		return fmt.Errorf("pressure_threshold must be within [0, 1], got %v", c.PressureThreshold)
	}
	switch c.Backend {
	case BackendLRU, BackendRistretto:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// Options builds cache Options, including the configured provider. Compiler,
// Logger and Hooks are left for the caller.
func (c *Config) Options() (Options, error) {
	var (
		p   provider.Provider
		err error
	)
	switch c.Backend {
	case BackendRistretto:
		p, err = ristretto.New(ristretto.Config{
			MaxEntries:  int64(c.MaxDynamic),
			NumCounters: c.Ristretto.NumCounters,
			BufferItems: c.Ristretto.BufferItems,
		})
	default:
		p, err = lru.New(c.MaxDynamic)
	}
	if err != nil {
		return Options{}, err
	}
	return Options{
		MaxDynamic:        c.MaxDynamic,
		PressureThreshold: c.PressureThreshold,
		Provider:          p,
	}, nil
}

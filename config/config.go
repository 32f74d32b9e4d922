package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel string `toml:"log-level"`
	LogFile  string `toml:"log-file"`  // Rotated log file, empty logs to stderr.
	HTTPAddr string `toml:"http-addr"` // Listen address of the serve command.
	MaxNodes int64  `toml:"max-nodes"` // Node budget of the list, 0 means unbounded.
	Stress   Stress `toml:"stress"`
}

type Stress struct {
	Workers         int     `toml:"workers"`
	ValuesPerWorker int     `toml:"values-per-worker"`
	RemoveRatio     float64 `toml:"remove-ratio"` // Fraction of each worker's values removed after inserting.
	ReadEvery       int     `toml:"read-every"`   // Run a read operation every N inserts, 0 disables reads.
	CheckLocks      bool    `toml:"check-locks"`  // Record lock events and fail on a discipline violation.
	Seed            int64   `toml:"seed"`
}

var DefaultConf = Config{
	LogLevel: "info",
	HTTPAddr: "127.0.0.1:3318",
	Stress: Stress{
		Workers:         8,
		ValuesPerWorker: 1000,
		RemoveRatio:     0.25,
		ReadEvery:       50,
		CheckLocks:      true,
		Seed:            1,
	},
}

// Load reads the TOML file at path on top of DefaultConf. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	conf := DefaultConf
	if path != "" {
		md, err := toml.DecodeFile(path, &conf)
		if err != nil {
			return nil, errors.Wrapf(err, "load config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log-level %q", c.LogLevel)
	}
	if c.MaxNodes < 0 {
		return errors.Errorf("invalid max-nodes %d", c.MaxNodes)
	}
	s := c.Stress
	if s.Workers <= 0 {
		return errors.Errorf("invalid stress.workers %d", s.Workers)
	}
	if s.ValuesPerWorker < 0 {
		return errors.Errorf("invalid stress.values-per-worker %d", s.ValuesPerWorker)
	}
	if s.RemoveRatio < 0 || s.RemoveRatio > 1 {
		return errors.Errorf("invalid stress.remove-ratio %v", s.RemoveRatio)
	}
	if s.ReadEvery < 0 {
		return errors.Errorf("invalid stress.read-every %d", s.ReadEvery)
	}
	return nil
}

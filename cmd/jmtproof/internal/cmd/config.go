package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/jmtdb"
)

const defaultConfigFile = "config.toml"

var ErrInvalidConfig = errors.New("invalid config")

// Config is read from a TOML file. Flags override the file.
type Config struct {
	DBPath      string `toml:"db_path"`
	KeyBits     int    `toml:"key_bits"`
	Hash        string `toml:"hash"`
	LogLevel    string `toml:"log_level"`
	CacheSize   int    `toml:"cache_size"`
	Concurrency int    `toml:"concurrency"`
}

func DefaultConfig() *Config {
	return &Config{
		DBPath:      "jmt.db",
		KeyBits:     jmt.DefaultKeyBits,
		Hash:        "sha256",
		LogLevel:    "INFO",
		CacheSize:   jmtdb.DefaultCacheSize,
		Concurrency: 0,
	}
}

// LoadConfig reads path over the defaults, so a file may set only some keys.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func SaveConfig(path string, conf *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is empty", ErrInvalidConfig)
	}
	if c.KeyBits < 1 || c.KeyBits > jmt.DefaultKeyBits {
		return fmt.Errorf("%w: key_bits must be in [1,%d], got %d", ErrInvalidConfig, jmt.DefaultKeyBits, c.KeyBits)
	}
	if _, err := jmt.HasherByName(c.Hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

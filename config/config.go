// Package config loads CLI defaults from a YAML file.
//
// Every field is optional. Values from the file become entries of the option map
// passed to the app orchestrators; command-line flags override them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/blockpress/app"
)

// Config is the content of a blockpress YAML file.
type Config struct {
	Verbosity   *int     `yaml:"verbosity"`
	Jobs        int      `yaml:"jobs"`
	Overwrite   bool     `yaml:"overwrite"`
	MetricsFile string   `yaml:"metrics_file"`
	Compress    Compress `yaml:"compress"`
}

// Compress holds the compression defaults.
type Compress struct {
	Level     *int   `yaml:"level"`
	BlockSize string `yaml:"block_size"`
	Transform string `yaml:"transform"`
	Codec     string `yaml:"codec"`
	Checksum  bool   `yaml:"checksum"`
}

// Load reads and parses the YAML file at path. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse parses YAML data. Empty data yields an empty Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Compress.Level != nil && (cfg.Compress.Transform != "" || cfg.Compress.Codec != "") {
		return nil, errors.New("compress.level cannot be combined with compress.transform or compress.codec")
	}

	return &cfg, nil
}

// CompressOptions returns the option map entries for a compression run.
func (c *Config) CompressOptions() map[string]string {
	opts := c.common()
	if c == nil {
		return opts
	}

	if c.Compress.Level != nil {
		opts[app.KeyLevel] = strconv.Itoa(*c.Compress.Level)
	}
	if c.Compress.BlockSize != "" {
		opts[app.KeyBlockSize] = c.Compress.BlockSize
	}
	if c.Compress.Transform != "" {
		opts[app.KeyTransform] = c.Compress.Transform
	}
	if c.Compress.Codec != "" {
		opts[app.KeyCodec] = c.Compress.Codec
	}
	if c.Compress.Checksum {
		opts[app.KeyChecksum] = "true"
	}

	return opts
}

// DecompressOptions returns the option map entries for a decompression run.
func (c *Config) DecompressOptions() map[string]string {
	return c.common()
}

func (c *Config) common() map[string]string {
	opts := make(map[string]string)
	if c == nil {
		return opts
	}

	if c.Verbosity != nil {
		opts[app.KeyVerbosity] = strconv.Itoa(*c.Verbosity)
	}
	if c.Jobs > 0 {
		opts[app.KeyJobs] = strconv.Itoa(c.Jobs)
	}
	if c.Overwrite {
		opts[app.KeyOverwrite] = "true"
	}

	return opts
}

package config

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding. Pointer fields distinguish
// "absent" from an explicit zero value.
type fileConfig struct {
	Addr     *string `yaml:"addr"`
	Dir      *string `yaml:"dir"`
	Name     *string `yaml:"name"`
	Redis    *string `yaml:"redis"`
	Workers  *int    `yaml:"workers"`
	Limit    *int    `yaml:"limit"`
	Debounce *string `yaml:"debounce"`
	Verbose  *bool   `yaml:"verbose"`
	JSON     *bool   `yaml:"json"`
	NoColor  *bool   `yaml:"no_color"`
	LogLevel *string `yaml:"log_level"`
}

// ApplyFile merges a YAML config file into c. Environment references like
// ${HOME} are expanded before parsing. Values already set explicitly on the
// command line win over the file; fs tells us which flags those were.
func (c *Config) ApplyFile(path string, fs *flag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	changed := func(name string) bool {
		return fs != nil && fs.Changed(name)
	}

	if fc.Addr != nil && !changed("addr") {
		c.Addr = *fc.Addr
	}
	if fc.Dir != nil && !changed("dir") {
		c.IndexDir = *fc.Dir
	}
	if fc.Name != nil && !changed("name") {
		c.IndexName = *fc.Name
	}
	if fc.Redis != nil && !changed("redis") {
		c.RedisURI = *fc.Redis
	}
	if fc.Workers != nil && !changed("workers") {
		c.Workers = *fc.Workers
	}
	if fc.Limit != nil && !changed("limit") {
		c.Limit = *fc.Limit
	}
	if fc.Debounce != nil && !changed("debounce") {
		d, err := time.ParseDuration(*fc.Debounce)
		if err != nil {
			return fmt.Errorf("parsing config file %s: debounce: %w", path, err)
		}
		c.Debounce = d
	}
	if fc.Verbose != nil && !changed("verbose") {
		c.Verbose = *fc.Verbose
	}
	if fc.JSON != nil && !changed("json") {
		c.JSON = *fc.JSON
	}
	if fc.NoColor != nil && !changed("no-color") {
		c.NoColor = *fc.NoColor
	}
	if fc.LogLevel != nil && !changed("log-level") {
		c.LogLevel = *fc.LogLevel
	}
	return nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format (use .yaml, .yml or .toml)")

// FileConfig represents the configuration file structure.
// This mirrors the runtime Config but uses file-friendly types.
type FileConfig struct {
	// Logging configuration
	Logging *FileLoggingConfig `yaml:"logging,omitempty" toml:"logging,omitempty"`

	// Update server and hostnames
	Update *FileUpdateConfig `yaml:"update,omitempty" toml:"update,omitempty"`

	// Public address lookup
	Resolver *FileResolverConfig `yaml:"resolver,omitempty" toml:"resolver,omitempty"`

	// Health and metrics server
	Server *FileServerConfig `yaml:"server,omitempty" toml:"server,omitempty"`

	// Credential master key storage
	Keyring *FileKeyringConfig `yaml:"keyring,omitempty" toml:"keyring,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format,omitempty"` // json, text
}

// FileUpdateConfig holds update server settings.
type FileUpdateConfig struct {
	URL       string   `yaml:"url,omitempty" toml:"url,omitempty"`
	Hostnames []string `yaml:"hostnames,omitempty" toml:"hostnames,omitempty"`

	// Go duration format (e.g., "60s", "5m")
	Interval string `yaml:"interval,omitempty" toml:"interval,omitempty"`
	Timeout  string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	// Pointer to distinguish unset from false
	TLSSkipVerify *bool `yaml:"tls_skip_verify,omitempty" toml:"tls_skip_verify,omitempty"`
}

// FileResolverConfig holds public address lookup settings.
type FileResolverConfig struct {
	Server string `yaml:"server,omitempty" toml:"server,omitempty"`
	Query  string `yaml:"query,omitempty" toml:"query,omitempty"`
	Type   string `yaml:"type,omitempty" toml:"type,omitempty"`
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port int `yaml:"port,omitempty" toml:"port,omitempty"` // Port for health/metrics endpoints
}

// FileKeyringConfig holds keyring settings. The file backend password is
// only read from the environment.
type FileKeyringConfig struct {
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty"`
	Dir     string `yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in all string
// fields of the config structure.
func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Update != nil {
		c.Update.URL = InterpolateEnvVars(c.Update.URL)
		c.Update.Interval = InterpolateEnvVars(c.Update.Interval)
		c.Update.Timeout = InterpolateEnvVars(c.Update.Timeout)
		for i := range c.Update.Hostnames {
			c.Update.Hostnames[i] = InterpolateEnvVars(c.Update.Hostnames[i])
		}
	}

	if c.Resolver != nil {
		c.Resolver.Server = InterpolateEnvVars(c.Resolver.Server)
		c.Resolver.Query = InterpolateEnvVars(c.Resolver.Query)
		c.Resolver.Type = InterpolateEnvVars(c.Resolver.Type)
	}

	if c.Keyring != nil {
		c.Keyring.Backend = InterpolateEnvVars(c.Keyring.Backend)
		c.Keyring.Dir = InterpolateEnvVars(c.Keyring.Dir)
	}
}

// LoadFile reads and parses a YAML or TOML configuration file, chosen by
// extension. Unknown keys are rejected. Environment variables in ${VAR}
// format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document is a valid, empty configuration.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("parsing TOML config: unknown keys %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply copies the values set in the file onto cfg.
// Returns a list of validation errors for values that cannot be parsed.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.Update != nil {
		if c.Update.URL != "" {
			cfg.UpdateURL = c.Update.URL
		}
		if len(c.Update.Hostnames) > 0 {
			cfg.Hostnames = append([]string(nil), c.Update.Hostnames...)
		}
		if c.Update.Interval != "" {
			if interval, err := parseDuration("update.interval", c.Update.Interval, time.Second); err != nil {
				errs = append(errs, err.Error())
			} else {
				cfg.Interval = interval
			}
		}
		if c.Update.Timeout != "" {
			if timeout, err := parseDuration("update.timeout", c.Update.Timeout, time.Second); err != nil {
				errs = append(errs, err.Error())
			} else {
				cfg.Timeout = timeout
			}
		}
		if c.Update.TLSSkipVerify != nil {
			cfg.TLSSkipVerify = *c.Update.TLSSkipVerify
		}
	}

	if c.Resolver != nil {
		if c.Resolver.Server != "" {
			cfg.Resolver = c.Resolver.Server
		}
		if c.Resolver.Query != "" {
			cfg.ResolverQuery = c.Resolver.Query
		}
		if c.Resolver.Type != "" {
			cfg.ResolverType = strings.ToUpper(c.Resolver.Type)
		}
	}

	if c.Server != nil && c.Server.Port != 0 {
		cfg.HealthPort = c.Server.Port
	}

	if c.Keyring != nil {
		if c.Keyring.Backend != "" {
			cfg.KeyringBackend = strings.ToLower(c.Keyring.Backend)
		}
		if c.Keyring.Dir != "" {
			cfg.KeyringDir = c.Keyring.Dir
		}
	}

	return errs
}

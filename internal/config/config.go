// Package config handles loading and validation of DynDNSClient runtime
// options from an optional YAML or TOML file and environment variables.
//
// The settings file holding the DNS service credentials is not configured
// here; its location is fixed per platform.
package config

import (
	"log/slog"
	"time"
)

// EnvPrefix is the prefix shared by all environment variables.
const EnvPrefix = "DYNDNSCLIENT_"

// Defaults for every option.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultUpdateURL     = "https://members.dyndns.org"
	DefaultInterval      = 5 * time.Minute
	DefaultResolver      = "resolver1.opendns.com:53"
	DefaultResolverQuery = "myip.opendns.com."
	DefaultResolverType  = "A"
	DefaultHealthPort    = 8080
	DefaultTimeout       = 30 * time.Second
	DefaultTLSSkipVerify = false
)

// Config holds the runtime options.
type Config struct {
	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Update server
	UpdateURL     string        // Base URL of the dyndns2 update server
	Hostnames     []string      // Hostnames to keep pointed at the public address
	Interval      time.Duration // How often to check the public address
	Timeout       time.Duration // HTTP request timeout
	TLSSkipVerify bool          // Skip TLS certificate verification

	// Public address lookup
	Resolver      string // DNS server as host:port
	ResolverQuery string // Name whose answer is the caller's address
	ResolverType  string // A, AAAA, TXT

	HealthPort int // Port for health/metrics endpoints

	// Keyring holding the credential master key
	KeyringBackend  string // empty picks the first available backend
	KeyringDir      string // directory of the file backend
	KeyringPassword string // password of the file backend
}

// Defaults returns a Config with every option at its default.
func Defaults() *Config {
	return &Config{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		UpdateURL:     DefaultUpdateURL,
		Interval:      DefaultInterval,
		Timeout:       DefaultTimeout,
		TLSSkipVerify: DefaultTLSSkipVerify,
		Resolver:      DefaultResolver,
		ResolverQuery: DefaultResolverQuery,
		ResolverType:  DefaultResolverType,
		HealthPort:    DefaultHealthPort,
	}
}

// Load builds the runtime configuration. Values come from the defaults,
// then the file at path (or DYNDNSCLIENT_CONFIG when path is empty), then
// environment overrides. All problems are reported together in a
// *ValidationError.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	var errs []string

	if path == "" {
		path = GetConfigFilePath()
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, &ValidationError{Errors: []string{"config file: " + err.Error()}}
		}
		errs = append(errs, fileCfg.apply(cfg)...)
		slog.Info("loaded configuration from file", slog.String("path", path))
	}

	errs = append(errs, applyEnv(cfg)...)
	normalize(cfg)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// GetConfigFilePath returns the config file path from the environment.
// Returns empty string if no config file is specified.
func GetConfigFilePath() string {
	return getEnv(EnvPrefix + "CONFIG")
}

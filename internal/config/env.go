package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides cfg with every DYNDNSCLIENT_* variable that is set.
// Environment variables always take precedence over file config.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	// The update URL may carry a token, so it supports the _FILE pattern.
	if v := getEnvWithFileFallback(EnvPrefix, "UPDATE_URL"); v != "" {
		cfg.UpdateURL = v
	}
	if v := getEnv(EnvPrefix + "HOSTNAMES"); v != "" {
		cfg.Hostnames = splitList(v)
	}

	if v := getEnv(EnvPrefix + "INTERVAL"); v != "" {
		interval, err := parseDuration(EnvPrefix+"INTERVAL", v, time.Second)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.Interval = interval
		}
	}
	if v := getEnv(EnvPrefix + "TIMEOUT"); v != "" {
		timeout, err := parseDuration(EnvPrefix+"TIMEOUT", v, time.Second)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.Timeout = timeout
		}
	}
	if v := getEnv(EnvPrefix + "TLS_SKIP_VERIFY"); v != "" {
		cfg.TLSSkipVerify = parseBool(v, cfg.TLSSkipVerify)
	}

	if v := getEnv(EnvPrefix + "RESOLVER"); v != "" {
		cfg.Resolver = v
	}
	if v := getEnv(EnvPrefix + "RESOLVER_QUERY"); v != "" {
		cfg.ResolverQuery = v
	}
	if v := getEnv(EnvPrefix + "RESOLVER_TYPE"); v != "" {
		cfg.ResolverType = strings.ToUpper(v)
	}

	if v := getEnv(EnvPrefix + "HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.HealthPort = port
		}
	}

	if v := getEnv(EnvPrefix + "KEYRING_BACKEND"); v != "" {
		cfg.KeyringBackend = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "KEYRING_DIR"); v != "" {
		cfg.KeyringDir = v
	}
	if v := getEnvWithFileFallback(EnvPrefix, "KEYRING_PASSWORD"); v != "" {
		cfg.KeyringPassword = v
	}

	return errs
}

// parseDuration parses a Go duration (60s, 5m) with a lower bound.
func parseDuration(name, value string, minimum time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use format like 60s, 5m)", name, value)
	}
	if d < minimum {
		return 0, fmt.Errorf("%s: must be at least %s", name, minimum)
	}
	return d, nil
}

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// normalize fills in parts the user may leave out.
func normalize(cfg *Config) {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.ResolverType = strings.ToUpper(cfg.ResolverType)
	cfg.KeyringBackend = strings.ToLower(cfg.KeyringBackend)
	cfg.UpdateURL = strings.TrimRight(cfg.UpdateURL, "/")

	// Resolver defaults to the DNS port.
	if cfg.Resolver != "" {
		if _, _, err := net.SplitHostPort(cfg.Resolver); err != nil {
			cfg.Resolver = net.JoinHostPort(strings.Trim(cfg.Resolver, "[]"), "53")
		}
	}

	// Queries are always fully qualified.
	if cfg.ResolverQuery != "" && !strings.HasSuffix(cfg.ResolverQuery, ".") {
		cfg.ResolverQuery += "."
	}
}

// validateConfig performs cross-field validation on the complete configuration.
// Returns a list of validation errors.
func validateConfig(cfg *Config) []string {
	var errs []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("%sLOG_LEVEL: invalid value %q (must be debug, info, warn, or error)", EnvPrefix, cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("%sLOG_FORMAT: invalid value %q (must be json or text)", EnvPrefix, cfg.LogFormat))
	}

	if u, err := url.Parse(cfg.UpdateURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("%sUPDATE_URL: must be an http or https URL, got %q", EnvPrefix, cfg.UpdateURL))
	}

	if len(cfg.Hostnames) == 0 {
		errs = append(errs, EnvPrefix+"HOSTNAMES: at least one hostname is required")
	}
	seen := make(map[string]bool, len(cfg.Hostnames))
	for _, h := range cfg.Hostnames {
		if strings.ContainsAny(h, " \t/:") || strings.HasPrefix(h, ".") {
			errs = append(errs, fmt.Sprintf("%sHOSTNAMES: invalid hostname %q", EnvPrefix, h))
		}
		if seen[strings.ToLower(h)] {
			errs = append(errs, fmt.Sprintf("%sHOSTNAMES: duplicate hostname %q", EnvPrefix, h))
		}
		seen[strings.ToLower(h)] = true
	}

	if cfg.Resolver == "" {
		errs = append(errs, EnvPrefix+"RESOLVER: must not be empty")
	}
	if cfg.ResolverQuery == "" {
		errs = append(errs, EnvPrefix+"RESOLVER_QUERY: must not be empty")
	}
	switch cfg.ResolverType {
	case "A", "AAAA", "TXT":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("%sRESOLVER_TYPE: invalid value %q (must be A, AAAA, or TXT)", EnvPrefix, cfg.ResolverType))
	}

	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: must be between 1 and 65535, got %d", EnvPrefix, cfg.HealthPort))
	}

	switch cfg.KeyringBackend {
	case "", "secret-service", "keychain", "kwallet", "wincred", "pass":
		// Valid
	case "file":
		if cfg.KeyringPassword == "" {
			errs = append(errs, EnvPrefix+"KEYRING_PASSWORD: required for the file keyring backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("%sKEYRING_BACKEND: invalid value %q (must be secret-service, keychain, kwallet, wincred, pass, or file)", EnvPrefix, cfg.KeyringBackend))
	}

	return errs
}

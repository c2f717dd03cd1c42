// dyndnsclient keeps dynamic DNS hostnames pointed at the host's public
// address. The DNS service credentials are read from the platform settings
// file; runtime options come from an optional config file and the
// environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/HolgerKuehn/DynDNSClient/internal/config"
	"github.com/HolgerKuehn/DynDNSClient/internal/health"
	"github.com/HolgerKuehn/DynDNSClient/internal/metrics"
	"github.com/HolgerKuehn/DynDNSClient/internal/settings"
	"github.com/HolgerKuehn/DynDNSClient/internal/updater"
	"github.com/HolgerKuehn/DynDNSClient/pkg/dyndns"
	"github.com/HolgerKuehn/DynDNSClient/pkg/httputil"
	"github.com/HolgerKuehn/DynDNSClient/pkg/publicip"
	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// options holds the command line flags.
type options struct {
	configPath string
	once       bool
	version    bool
}

// AddFlags registers the command line flags on fs.
func (o *options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "path to a YAML or TOML config file (default $"+config.EnvPrefix+"CONFIG)")
	fs.BoolVar(&o.once, "once", false, "run a single update and exit")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("dyndnsclient", pflag.ContinueOnError)
	opts.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.version {
		fmt.Fprintf(stdout, "dyndnsclient %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		return nil
	}

	// Load configuration first (fail fast)
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("dyndnsclient starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.Any("hostnames", cfg.Hostnames),
		slog.Bool("once", opts.once),
	)

	ring, err := secret.OpenKeyring(secret.KeyringConfig{
		Backend:      cfg.KeyringBackend,
		FileDir:      cfg.KeyringDir,
		FilePassword: cfg.KeyringPassword,
	})
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}

	s, err := settings.Load(settings.DefaultPaths(),
		settings.WithLogger(logger),
		settings.WithKeyring(ring),
	)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	defer s.Close()

	plaintext := s.Credentials().AnyValuePlaintext()
	metrics.SetPlaintextCredentials(plaintext)

	httpClient := httputil.NewClient(&httputil.ClientConfig{
		Timeout:       cfg.Timeout,
		TLSSkipVerify: cfg.TLSSkipVerify,
		UserAgent:     httputil.UserAgent(Version),
		Logger:        logger,
	})
	client := dyndns.NewClient(cfg.UpdateURL,
		dyndns.Credential(s.Credentials().NetworkCredential()),
		dyndns.WithHTTPClient(httpClient),
		dyndns.WithLogger(logger),
	)

	resolver, err := publicip.NewResolver(
		publicip.WithServer(cfg.Resolver),
		publicip.WithQuery(cfg.ResolverQuery),
		publicip.WithType(cfg.ResolverType),
		publicip.WithTimeout(cfg.Timeout),
		publicip.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating public address resolver: %w", err)
	}

	upd := updater.New(resolver, client, cfg.Hostnames, updater.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.once {
		result, err := upd.RunOnce(ctx)
		if err != nil {
			return err
		}
		return result.Err()
	}

	healthServer := health.New(cfg.HealthPort, health.WithLogger(logger))
	healthServer.RegisterChecker("updater", upd.Check)
	healthServer.RegisterDegradedChecker("settings", func(context.Context) (bool, string) {
		if plaintext {
			return true, "settings file contains unencrypted credentials"
		}
		return false, ""
	})
	healthServer.RegisterDegradedChecker("hostnames", func(context.Context) (bool, string) {
		blocked := upd.Blocked()
		if len(blocked) == 0 {
			return false, ""
		}
		return true, "updates blocked for " + strings.Join(slices.Sorted(maps.Keys(blocked)), ", ")
	})

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	logger.Info("dyndnsclient initialized, watching public address",
		slog.Duration("interval", cfg.Interval),
		slog.String("resolver", resolver.Server()),
		slog.Int("health_port", cfg.HealthPort),
	)

	upd.Run(ctx, cfg.Interval)

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("dyndnsclient shutdown complete")
	return nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

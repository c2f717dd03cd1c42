// Package settings loads the DynDNSClient settings file and the DNS
// service credentials it contains.
package settings

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/99designs/keyring"

	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
	"github.com/HolgerKuehn/DynDNSClient/pkg/xmlaccess"
)

// RootNode is the document element of the settings file.
const RootNode = "DynDNSClient"

// Settings is the loaded settings file. It is built once at startup and
// passed to the components that need it.
type Settings struct {
	paths       Paths
	credentials *Credentials
}

type options struct {
	logger    *slog.Logger
	protector *secret.Protector
	ring      keyring.Keyring
	handler   xmlaccess.ValidationHandler
}

// Option is a functional option for Load.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProtector sets the protector used for the at-rest form of the
// credentials. Defaults to one bound to the executing account.
func WithProtector(p *secret.Protector) Option {
	return func(o *options) {
		o.protector = p
	}
}

// WithKeyring sets the keyring holding the master key of the default
// protector. Defaults to the first available platform keyring. Ignored when
// WithProtector is set.
func WithKeyring(ring keyring.Keyring) Option {
	return func(o *options) {
		o.ring = ring
	}
}

// WithValidationHandler receives schema findings instead of the logger.
func WithValidationHandler(h xmlaccess.ValidationHandler) Option {
	return func(o *options) {
		o.handler = h
	}
}

// Load reads the settings file at paths. Both files must exist; an empty
// paths.Schema disables validation. Either a complete Settings or an error
// is returned.
func Load(paths Paths, opts ...Option) (*Settings, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if !fileExists(paths.Data) {
		return nil, &xmlaccess.MissingFileError{What: "settings file " + dataFileName, Path: paths.Data}
	}
	if paths.Schema != "" && !fileExists(paths.Schema) {
		return nil, &xmlaccess.MissingFileError{What: "settings schema " + schemaFileName, Path: paths.Schema}
	}

	protector := o.protector
	if protector == nil {
		var err error
		if protector, err = defaultProtector(o.ring); err != nil {
			return nil, fmt.Errorf("creating credential protector: %w", err)
		}
	}

	loadOpts := []xmlaccess.LoadOption{xmlaccess.WithLogger(o.logger)}
	if o.handler != nil {
		loadOpts = append(loadOpts, xmlaccess.WithValidationHandler(o.handler))
	}

	root, err := xmlaccess.Load(paths.Data, paths.Schema, RootNode, loadOpts...)
	if err != nil {
		return nil, err
	}

	children := root.Children()
	if len(children) == 0 {
		return nil, &MissingFieldError{Section: RootNode, Field: "settings element"}
	}

	credentials, err := NewCredentials(children[0], protector)
	if err != nil {
		return nil, err
	}

	o.logger.Info("settings loaded",
		slog.String("path", paths.Data),
		slog.String("schema", paths.Schema),
	)
	o.logger.Debug("credentials loaded",
		slog.String("username", credentials.NetworkCredential().Username),
	)
	if credentials.AnyValuePlaintext() {
		o.logger.Warn("settings file contains unencrypted credentials",
			slog.String("path", paths.Data),
		)
	}

	return &Settings{paths: paths, credentials: credentials}, nil
}

// Paths returns the files the settings were loaded from.
func (s *Settings) Paths() Paths {
	return s.paths
}

// Credentials returns the DNS service login.
func (s *Settings) Credentials() *Credentials {
	return s.credentials
}

// Close scrubs all secrets held by the settings.
func (s *Settings) Close() error {
	return s.credentials.Close()
}

func defaultProtector(ring keyring.Keyring) (*secret.Protector, error) {
	if ring == nil {
		var err error
		if ring, err = secret.OpenKeyring(secret.KeyringConfig{}); err != nil {
			return nil, err
		}
	}
	return secret.CurrentUserProtector(ring)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

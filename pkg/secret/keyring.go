package secret

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/99designs/keyring"
)

// KeyringService is the service name the master key is stored under.
const KeyringService = "DynDNSClient"

// KeyringConfig selects where the account master key is kept.
type KeyringConfig struct {
	// Backend forces one keyring backend, e.g. "secret-service",
	// "keychain", "wincred", "kwallet", "pass" or "file". Empty picks the
	// first available one.
	Backend string

	// FileDir is the directory of the file backend. Defaults to
	// DynDNSClient/keyring under the user configuration directory.
	FileDir string

	// FilePassword encrypts the file backend. Without it the file backend
	// is not used unless Backend names it.
	FilePassword string
}

// OpenKeyring opens the keyring described by cfg.
func OpenKeyring(cfg KeyringConfig) (keyring.Keyring, error) {
	dir := cfg.FileDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving keyring directory: %w", err)
		}
		dir = filepath.Join(base, KeyringService, "keyring")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              KeyringService,
		AllowedBackends:          allowedBackends(cfg),
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.FilePassword),
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		KWalletAppID:             KeyringService,
		KWalletFolder:            KeyringService,
		WinCredPrefix:            KeyringService,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// allowedBackends returns the persistent backends that may hold the master
// key. The kernel keyctl backend is never used: its keys do not survive a
// reboot.
func allowedBackends(cfg KeyringConfig) []keyring.BackendType {
	if cfg.Backend != "" {
		return []keyring.BackendType{keyring.BackendType(cfg.Backend)}
	}

	return slices.DeleteFunc(keyring.AvailableBackends(), func(b keyring.BackendType) bool {
		return b == keyring.KeyCtlBackend || (b == keyring.FileBackend && cfg.FilePassword == "")
	})
}

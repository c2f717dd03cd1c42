package secret

import (
	"slices"
	"testing"

	"github.com/99designs/keyring"
)

func TestAllowedBackends(t *testing.T) {
	t.Run("explicit backend", func(t *testing.T) {
		got := allowedBackends(KeyringConfig{Backend: "file"})
		if len(got) != 1 || got[0] != keyring.FileBackend {
			t.Errorf("allowedBackends() = %v, want [file]", got)
		}
	})

	t.Run("auto without file password", func(t *testing.T) {
		got := allowedBackends(KeyringConfig{})
		if slices.Contains(got, keyring.FileBackend) {
			t.Errorf("file backend should need a password, got %v", got)
		}
		if slices.Contains(got, keyring.KeyCtlBackend) {
			t.Errorf("keyctl backend should never be picked, got %v", got)
		}
	})

	t.Run("auto with file password", func(t *testing.T) {
		got := allowedBackends(KeyringConfig{FilePassword: "pw"})
		if !slices.Contains(got, keyring.FileBackend) {
			t.Errorf("file backend should be available, got %v", got)
		}
	})
}

func TestOpenKeyring_File(t *testing.T) {
	cfg := KeyringConfig{Backend: "file", FileDir: t.TempDir(), FilePassword: "test-password"}

	ring, err := OpenKeyring(cfg)
	if err != nil {
		t.Fatalf("OpenKeyring() error = %v", err)
	}
	encoded, err := newTestProtectorWithRing(t, testIdentity, ring).Protect([]byte("s3cret"), nil)
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenKeyring(cfg)
	if err != nil {
		t.Fatalf("OpenKeyring() again error = %v", err)
	}
	got, err := newTestProtectorWithRing(t, testIdentity, reopened).Unprotect(encoded, nil)
	if err != nil {
		t.Fatalf("Unprotect() after reopening error = %v", err)
	}
	if string(got) != "s3cret" {
		t.Errorf("got %q, want %q", got, "s3cret")
	}
}

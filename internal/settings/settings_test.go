package settings

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
	"github.com/HolgerKuehn/DynDNSClient/pkg/xmlaccess"
)

func testProtector(t *testing.T) *secret.Protector {
	t.Helper()
	p, err := secret.NewProtector(secret.Identity{Machine: "test-machine", User: "tester", UID: "1000"}, keyring.NewArrayKeyring(nil))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func settingsXML(username, usernameEncrypted, password, passwordEncrypted string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<DynDNSClient>
  <Settings>
    <Username><IsEncrypted>` + usernameEncrypted + `</IsEncrypted><Value>` + username + `</Value></Username>
    <Password><IsEncrypted>` + passwordEncrypted + `</IsEncrypted><Value>` + password + `</Value></Password>
  </Settings>
</DynDNSClient>`
}

func TestLoad_EndToEnd(t *testing.T) {
	p := testProtector(t)
	paths := Paths{
		Data:   filepath.Join("testdata", "Settings.xml"),
		Schema: filepath.Join("testdata", "Settings.xsd"),
	}

	var violations []*xmlaccess.Violation
	s, err := Load(paths,
		WithProtector(p),
		WithValidationHandler(func(v *xmlaccess.Violation) { violations = append(violations, v) }),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer s.Close()

	if len(violations) != 0 {
		t.Errorf("unexpected violations: %v", violations)
	}
	if s.Paths() != paths {
		t.Errorf("Paths() = %+v, want %+v", s.Paths(), paths)
	}

	creds := s.Credentials()
	if !creds.AnyValuePlaintext() {
		t.Error("AnyValuePlaintext() = false, want true")
	}

	network := creds.NetworkCredential()
	if network.Username != "alice" {
		t.Errorf("Username = %q, want %q", network.Username, "alice")
	}
	err = network.Password.Use(func(b []byte) error {
		if string(b) != "s3cret" {
			t.Errorf("Password reveals %q, want %q", b, "s3cret")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Password.Use() error = %v", err)
	}

	for name, es := range map[string]*secret.EncryptedString{"alice": creds.Username(), "s3cret": creds.Password()} {
		plain, err := p.Unprotect(es.EncryptedString(), nil)
		if err != nil {
			t.Fatalf("Unprotect(%s) error = %v", name, err)
		}
		if string(plain) != name {
			t.Errorf("at-rest value decrypts to %q, want %q", plain, name)
		}
	}
}

func TestLoad_SchemaNotConfigured(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "Settings.xml", settingsXML("alice", "false", "s3cret", "false"))

	s, err := Load(Paths{Data: data}, WithProtector(testProtector(t)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer s.Close()

	if s.Credentials().NetworkCredential().Username != "alice" {
		t.Errorf("unexpected username %q", s.Credentials().NetworkCredential().Username)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "Settings.xml", settingsXML("alice", "false", "s3cret", "false"))
	schema := writeFile(t, dir, "Settings.xsd", readTestdata(t, "Settings.xsd"))

	tests := []struct {
		name     string
		paths    Paths
		wantPath string
		wantWhat string
	}{
		{
			name:     "data file missing",
			paths:    Paths{Data: filepath.Join(dir, "none.xml"), Schema: schema},
			wantPath: filepath.Join(dir, "none.xml"),
			wantWhat: dataFileName,
		},
		{
			name:     "schema file missing",
			paths:    Paths{Data: data, Schema: filepath.Join(dir, "none.xsd")},
			wantPath: filepath.Join(dir, "none.xsd"),
			wantWhat: schemaFileName,
		},
		{
			name:     "data path empty",
			paths:    Paths{Schema: schema},
			wantWhat: dataFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(tt.paths, WithProtector(testProtector(t)))
			if s != nil {
				t.Error("expected no settings on error")
			}

			var missing *xmlaccess.MissingFileError
			if !errors.As(err, &missing) {
				t.Fatalf("expected *xmlaccess.MissingFileError, got %v", err)
			}
			if missing.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", missing.Path, tt.wantPath)
			}
			if !strings.Contains(missing.What, tt.wantWhat) {
				t.Errorf("What = %q, want it to mention %q", missing.What, tt.wantWhat)
			}
		})
	}
}

func TestLoad_ValidationIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	content := strings.Replace(settingsXML("alice", "false", "s3cret", "false"),
		"</Settings>", "<Unexpected/></Settings>", 1)
	data := writeFile(t, dir, "Settings.xml", content)
	schema := writeFile(t, dir, "Settings.xsd", readTestdata(t, "Settings.xsd"))

	var violations []*xmlaccess.Violation
	s, err := Load(Paths{Data: data, Schema: schema},
		WithProtector(testProtector(t)),
		WithValidationHandler(func(v *xmlaccess.Violation) { violations = append(violations, v) }),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer s.Close()

	if len(violations) != 1 {
		t.Errorf("expected 1 violation, got %d", len(violations))
	}
}

func TestLoad_DocumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "malformed",
			content: "<DynDNSClient><Settings>",
			check: func(t *testing.T, err error) {
				var target *xmlaccess.MalformedDocumentError
				if !errors.As(err, &target) {
					t.Errorf("expected *xmlaccess.MalformedDocumentError, got %v", err)
				}
			},
		},
		{
			name:    "wrong root",
			content: "<Client><Settings/></Client>",
			check: func(t *testing.T, err error) {
				var target *xmlaccess.RootNotFoundError
				if !errors.As(err, &target) {
					t.Errorf("expected *xmlaccess.RootNotFoundError, got %v", err)
				}
			},
		},
		{
			name:    "no settings element",
			content: "<DynDNSClient/>",
			check: func(t *testing.T, err error) {
				var target *MissingFieldError
				if !errors.As(err, &target) || target.Section != RootNode {
					t.Errorf("expected *MissingFieldError for %s, got %v", RootNode, err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			data := writeFile(t, dir, "Settings.xml", tt.content)

			s, err := Load(Paths{Data: data}, WithProtector(testProtector(t)))
			if s != nil {
				t.Error("expected no settings on error")
			}
			tt.check(t, err)
		})
	}
}

func TestSettings_Close(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "Settings.xml", settingsXML("alice", "false", "s3cret", "false"))

	s, err := Load(Paths{Data: data}, WithProtector(testProtector(t)))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	creds := s.Credentials()
	if !creds.Username().Protected().Destroyed() || !creds.Password().Protected().Destroyed() {
		t.Error("Close() did not destroy the secrets")
	}
	if err := creds.NetworkCredential().Password.Use(func([]byte) error { return nil }); !errors.Is(err, secret.ErrDestroyed) {
		t.Errorf("Use() after Close error = %v, want ErrDestroyed", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if filepath.Base(paths.Data) != dataFileName {
		t.Errorf("Data = %q", paths.Data)
	}
	if filepath.Base(paths.Schema) != schemaFileName {
		t.Errorf("Schema = %q", paths.Schema)
	}
	if !strings.Contains(paths.Data, filepath.Join(appDir, "Data")) {
		t.Errorf("Data = %q should be under %s", paths.Data, filepath.Join(appDir, "Data"))
	}
	if !strings.Contains(paths.Schema, filepath.Join(appDir, "Schema")) {
		t.Errorf("Schema = %q should be under %s", paths.Schema, filepath.Join(appDir, "Schema"))
	}
}

func TestLoad_UsernameNotLoggedAtInfo(t *testing.T) {
	tests := []struct {
		level    slog.Level
		username bool
	}{
		{slog.LevelInfo, false},
		{slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.level}))

			s, err := Load(Paths{Data: filepath.Join("testdata", "Settings.xml")},
				WithProtector(testProtector(t)),
				WithLogger(logger),
			)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			defer s.Close()

			if !strings.Contains(buf.String(), "settings loaded") {
				t.Errorf("expected settings loaded message, got %q", buf.String())
			}
			if got := strings.Contains(buf.String(), "alice"); got != tt.username {
				t.Errorf("username in log = %v, want %v: %q", got, tt.username, buf.String())
			}
			if strings.Contains(buf.String(), "s3cret") {
				t.Errorf("password leaked into log: %q", buf.String())
			}
		})
	}
}

func TestLoad_WithKeyring(t *testing.T) {
	if _, err := secret.CurrentIdentity(); err != nil {
		t.Skipf("no current user in this environment: %v", err)
	}

	ring := keyring.NewArrayKeyring(nil)
	s, err := Load(Paths{Data: filepath.Join("testdata", "Settings.xml")}, WithKeyring(ring))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer s.Close()

	if _, err := ring.Get("at-rest-master-key"); err != nil {
		t.Errorf("expected the master key in the given keyring: %v", err)
	}

	p, err := secret.CurrentUserProtector(ring)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := p.Unprotect(s.Credentials().Password().EncryptedString(), nil)
	if err != nil {
		t.Fatalf("Unprotect() error = %v", err)
	}
	if string(plain) != "s3cret" {
		t.Errorf("got %q, want %q", plain, "s3cret")
	}
}

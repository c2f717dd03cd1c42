package secret

import (
	"fmt"
	"log/slog"
)

// Mode selects the conversion performed by New.
type Mode int

const (
	// PlaintextToEncrypted builds all forms from a plaintext value.
	PlaintextToEncrypted Mode = iota
)

func (m Mode) String() string {
	switch m {
	case PlaintextToEncrypted:
		return "plaintext-to-encrypted"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// EncryptedString holds one secret in at-rest, plaintext and protected form.
// All three forms are set together by New.
type EncryptedString struct {
	encrypted string
	plaintext string
	protected *Protected
}

// New converts value according to mode. Protection uses an empty entropy
// buffer, so only the account key guards the at-rest form.
func New(mode Mode, value string, protector *Protector) (*EncryptedString, error) {
	if protector == nil {
		return nil, fmt.Errorf("%w: protector is required", ErrInvalidArgument)
	}

	switch mode {
	case PlaintextToEncrypted:
		return fromPlaintext(value, protector)
	default:
		return nil, fmt.Errorf("%w: unsupported conversion %s", ErrInvalidArgument, mode)
	}
}

func fromPlaintext(value string, protector *Protector) (*EncryptedString, error) {
	clearBytes := []byte(value)
	defer clear(clearBytes)

	encrypted, err := protector.Protect(clearBytes, nil)
	if err != nil {
		return nil, fmt.Errorf("encrypting value: %w", err)
	}

	protected, err := newProtectedString(value)
	if err != nil {
		return nil, err
	}

	return &EncryptedString{
		encrypted: encrypted,
		plaintext: value,
		protected: protected,
	}, nil
}

// EncryptedString returns the at-rest form.
func (s *EncryptedString) EncryptedString() string {
	return s.encrypted
}

// Plaintext returns the value as it was read.
func (s *EncryptedString) Plaintext() string {
	return s.plaintext
}

// Protected returns the in-memory protected form.
func (s *EncryptedString) Protected() *Protected {
	return s.protected
}

// Destroy scrubs the protected form and drops the plaintext.
func (s *EncryptedString) Destroy() {
	if s == nil {
		return
	}
	s.protected.Destroy()
	s.plaintext = ""
}

// LogValue implements slog.LogValuer; only the at-rest form is logged.
func (s *EncryptedString) LogValue() slog.Value {
	return slog.GroupValue(slog.String("encrypted", s.encrypted))
}

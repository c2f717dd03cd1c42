package secret

import (
	"crypto/rand"
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// Protected keeps a secret masked with a random one-time pad while it sits
// in memory. The clear bytes exist only for the duration of a Use callback.
type Protected struct {
	masked    []byte
	pad       []byte
	destroyed bool
}

// NewProtected copies b into a new Protected buffer. The caller keeps
// ownership of b and should clear it.
func NewProtected(b []byte) (*Protected, error) {
	return newProtected(len(b), func(i int) byte { return b[i] })
}

func newProtectedString(s string) (*Protected, error) {
	return newProtected(len(s), func(i int) byte { return s[i] })
}

func newProtected(n int, at func(int) byte) (*Protected, error) {
	p := &Protected{
		masked: make([]byte, n),
		pad:    make([]byte, n),
	}
	if _, err := rand.Read(p.pad); err != nil {
		return nil, fmt.Errorf("generating pad: %w", err)
	}
	for i := 0; i < n; i++ {
		p.masked[i] = at(i) ^ p.pad[i]
	}
	return p, nil
}

// Len returns the length of the secret in bytes.
func (p *Protected) Len() int {
	return len(p.masked)
}

// Use reveals the secret to fn. The slice passed to fn is zeroed when fn
// returns and must not be retained.
func (p *Protected) Use(fn func(secret []byte) error) error {
	if p == nil || p.destroyed {
		return ErrDestroyed
	}

	buf := make([]byte, len(p.masked))
	defer clear(buf)
	for i := range buf {
		buf[i] = p.masked[i] ^ p.pad[i]
	}
	return fn(buf)
}

// Destroy scrubs the buffer. It is safe to call more than once.
func (p *Protected) Destroy() {
	if p == nil {
		return
	}
	clear(p.masked)
	clear(p.pad)
	p.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (p *Protected) Destroyed() bool {
	return p == nil || p.destroyed
}

// String implements fmt.Stringer without revealing the secret.
func (p *Protected) String() string {
	return redacted
}

// LogValue implements slog.LogValuer without revealing the secret.
func (p *Protected) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

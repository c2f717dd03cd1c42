package secret

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/99designs/keyring"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const formatVersion byte = 1

const (
	keyInfo = "DynDNSClient credential encryption key v1"

	// masterKeyItem is the keyring entry holding the random account key.
	masterKeyItem  = "at-rest-master-key"
	masterKeyLabel = "DynDNSClient credential key"
	masterKeySize  = 32
)

// Sentinel errors for secret operations.
var (
	// ErrInvalidArgument is returned when a required argument is missing or unsupported.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecrypt is returned when a value cannot be recovered in this account context.
	ErrDecrypt = errors.New("cannot decrypt value")

	// ErrDestroyed is returned when a destroyed Protected buffer is used.
	ErrDestroyed = errors.New("protected value has been destroyed")
)

// Protector encrypts and decrypts values with an account-scoped key.
type Protector struct {
	aead cipher.AEAD
}

// NewProtector returns a Protector for id. The key is derived from a random
// master key kept in ring, salted with the identity. The master key is
// created and stored on first use.
func NewProtector(id Identity, ring keyring.Keyring) (*Protector, error) {
	if id.Machine == "" && id.User == "" && id.UID == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	if ring == nil {
		return nil, fmt.Errorf("%w: no keyring", ErrInvalidArgument)
	}

	master, err := masterKey(ring)
	if err != nil {
		return nil, err
	}
	defer clear(master)

	key := make([]byte, chacha20poly1305.KeySize)
	defer clear(key)

	kdf := hkdf.New(sha256.New, master, id.material(), []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &Protector{aead: aead}, nil
}

// CurrentUserProtector returns a Protector bound to the executing account.
func CurrentUserProtector(ring keyring.Keyring) (*Protector, error) {
	id, err := CurrentIdentity()
	if err != nil {
		return nil, err
	}
	return NewProtector(id, ring)
}

// masterKey reads the account master key from ring, creating it if absent.
func masterKey(ring keyring.Keyring) ([]byte, error) {
	item, err := ring.Get(masterKeyItem)
	switch {
	case err == nil:
		if len(item.Data) != masterKeySize {
			return nil, fmt.Errorf("%w: stored master key has %d bytes, want %d",
				ErrInvalidArgument, len(item.Data), masterKeySize)
		}
		return bytes.Clone(item.Data), nil
	case errors.Is(err, keyring.ErrKeyNotFound):
	default:
		return nil, fmt.Errorf("reading master key: %w", err)
	}

	master := make([]byte, masterKeySize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("generating master key: %w", err)
	}
	err = ring.Set(keyring.Item{
		Key:         masterKeyItem,
		Data:        bytes.Clone(master),
		Label:       masterKeyLabel,
		Description: "encrypts the credentials in the DynDNSClient settings file",
	})
	if err != nil {
		clear(master)
		return nil, fmt.Errorf("storing master key: %w", err)
	}
	return master, nil
}

// Protect encrypts plaintext. The same entropy must be passed to Unprotect.
func (p *Protector) Protect(plaintext, entropy []byte) (string, error) {
	nonceSize := p.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+p.aead.Overhead())
	out[0] = formatVersion

	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	out = p.aead.Seal(out, nonce, plaintext, entropy)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Unprotect reverses Protect. It fails with ErrDecrypt when the value was
// protected by another account, with other entropy, or was modified.
func (p *Protector) Unprotect(encoded string, entropy []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	nonceSize := p.aead.NonceSize()
	if len(raw) < 1+nonceSize+p.aead.Overhead() {
		return nil, fmt.Errorf("%w: value too short", ErrDecrypt)
	}
	if raw[0] != formatVersion {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrDecrypt, raw[0])
	}

	plaintext, err := p.aead.Open(nil, raw[1:1+nonceSize], raw[1+nonceSize:], entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return plaintext, nil
}

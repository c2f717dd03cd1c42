// Package secret protects credentials at rest and in memory.
//
// A [Protector] encrypts values with a key derived from a random master key
// held in the account's keyring (see [OpenKeyring]), salted with the
// identity of the executing account (machine id, user name and uid). A value
// protected by one account on one machine can only be recovered by the same
// account, with access to the same keyring, on the same machine.
//
// An [EncryptedString] is built from a plaintext value in one step and holds
// three forms of it: the at-rest encrypted string, the plaintext, and a
// [Protected] buffer that keeps the bytes masked in memory until they are
// needed by a network client.
//
// # At-rest format
//
// The encrypted string is the standard base64 encoding of
//
//	version (1 byte) || nonce (24 bytes) || XChaCha20-Poly1305 ciphertext
//
// The key is derived with HKDF-SHA256 from the master key. Optional
// entropy is bound to the ciphertext as associated data.
package secret

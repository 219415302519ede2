// Package u2fcrypto defines the narrow crypto capability set the apdu
// package consumes (spec.md §6) and a default, standard-library-backed
// implementation of it.
package u2fcrypto

import "crypto/ecdsa"

// Facade is the crypto boundary spec.md §6 specifies. apdu.Handler takes
// one explicitly, rather than reaching for a process-wide crypto module —
// the layered re-architecture spec.md §9's design notes call for, so the
// raw-message layer can be exercised against a mock in tests.
type Facade interface {
	// SHA256 returns the 32-byte digest of data.
	SHA256(data []byte) [32]byte

	// GenerateP256 produces a fresh ECDSA P-256 keypair: the 32-byte
	// private scalar and the 65-byte uncompressed public key
	// (0x04 || X || Y).
	GenerateP256() (priv *ecdsa.PrivateKey, pubUncompressed [65]byte, err error)

	// SignP256 signs digest with priv, returning a DER-encoded ECDSA
	// signature.
	SignP256(priv *ecdsa.PrivateKey, digest [32]byte) (der []byte, err error)

	// ImportP256 reconstructs a private key from its 32-byte scalar.
	ImportP256(scalar [32]byte) (*ecdsa.PrivateKey, error)

	// Wrap wraps a plaintext key-handle payload with the authenticator's
	// fixed key. The ciphertext length is a deterministic function of
	// len(plaintext), so key_handle_size can be computed before wrapping.
	Wrap(plaintext []byte) (ciphertext []byte, err error)

	// Unwrap is the inverse of Wrap. It fails (rather than panics) on any
	// corrupt or forged ciphertext — callers must turn that failure into
	// SW_WRONG_DATA, never a detailed error.
	Unwrap(ciphertext []byte) (plaintext []byte, err error)
}

// WrappedOverhead is the number of bytes Wrap adds to a plaintext of any
// length (nonce + authentication tag). Default.Wrap satisfies this.
const WrappedOverhead = 12 + 16 // AES-GCM standard nonce + tag

package u2fcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// Default implements Facade on top of Go's standard library crypto
// packages. Every repo in the example pack that touches ECDSA or AES
// reaches for the standard library rather than a third-party primitive
// (kryptco-kr's own krypto.go calls straight into crypto/rand and NaCl,
// never a third-party ECDSA package) — see DESIGN.md for the full
// justification of using stdlib here.
type Default struct {
	wrapKey [32]byte
}

// NewDefault derives the authenticator's fixed AES-256-GCM key-handle
// wrapping key from a 32-byte master secret via HKDF-SHA256, rather than
// using the secret directly, so rotating the info string or adding a salt
// later does not change the on-disk master secret format.
func NewDefault(masterSecret [32]byte) (*Default, error) {
	d := &Default{}
	kdf := hkdf.New(sha256.New, masterSecret[:], nil, []byte("u2fkeyd key-handle wrap v1"))
	if _, err := io.ReadFull(kdf, d.wrapKey[:]); err != nil {
		return nil, fmt.Errorf("derive wrap key: %w", err)
	}
	return d, nil
}

func (d *Default) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (d *Default) GenerateP256() (priv *ecdsa.PrivateKey, pubUncompressed [65]byte, err error) {
	priv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return
	}
	copy(pubUncompressed[:], elliptic.Marshal(elliptic.P256(), priv.X, priv.Y))
	return
}

func (d *Default) SignP256(priv *ecdsa.PrivateKey, digest [32]byte) ([]byte, error) {
	return ecdsa.SignASN1(rand.Reader, priv, digest[:])
}

func (d *Default) ImportP256(scalar [32]byte) (*ecdsa.PrivateKey, error) {
	curve := elliptic.P256()
	priv := new(ecdsa.PrivateKey)
	priv.Curve = curve
	priv.D = new(big.Int).SetBytes(scalar[:])
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(scalar[:])
	return priv, nil
}

// Wrap seals plaintext with AES-256-GCM under the derived wrap key,
// prepending the nonce to the ciphertext — the same "prefix the nonce onto
// the ciphertext" convention kryptco-kr's krypto.go uses for its NaCl
// sealed boxes (sodiumBoxSeal prepends the ephemeral key the same way).
func (d *Default) Wrap(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(d.wrapKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Unwrap is the inverse of Wrap. Any failure — truncated input, a tag
// mismatch, a forged ciphertext — is reported as a single opaque error so
// callers cannot distinguish "too short" from "wrong key" from an attacker.
func (d *Default) Unwrap(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(d.wrapKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("key handle ciphertext too short")
	}
	nonce, ct := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("key handle unwrap failed")
	}
	return plaintext, nil
}

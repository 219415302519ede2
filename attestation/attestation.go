// Package attestation provisions the authenticator's fixed attestation
// identity: a P-256 key and a certificate over it, consumed by apdu.Handler
// through the narrow Attestation interface. spec.md §4.6 explicitly
// excludes how the private key is protected at rest — StaticProvider loads
// it from a PEM file the way FilePersister.LoadMe loads a profile, and
// mints a fresh self-signed one on first run if none exists.
package attestation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

var errMissingPEMBlock = errors.New("attestation: PEM file contains no matching block")

// Provider is the master-secret source u2fcrypto.NewDefault derives its
// AES wrap key from, plus the Key/CertDER pair apdu.Handler signs
// registrations with.
type Provider interface {
	Key() *ecdsa.PrivateKey
	CertDER() []byte
	MasterSecret() [32]byte
}

// StaticProvider holds one long-lived P-256 key and DER certificate for
// the lifetime of the process.
type StaticProvider struct {
	key    *ecdsa.PrivateKey
	cert   []byte
	secret [32]byte
}

func (p *StaticProvider) Key() *ecdsa.PrivateKey  { return p.key }
func (p *StaticProvider) CertDER() []byte         { return p.cert }
func (p *StaticProvider) MasterSecret() [32]byte  { return p.secret }

// LoadOrGenerate reads keyPath/certPath (PEM-encoded EC PRIVATE KEY and
// CERTIFICATE blocks) if both exist, or else mints a fresh self-signed
// identity and writes it to those paths, matching FilePersister's
// load-else-create shape for the "me" profile file. secretPath holds the
// 32-byte HKDF master secret the same way.
func LoadOrGenerate(keyPath, certPath, secretPath string) (*StaticProvider, error) {
	if fileExists(keyPath) && fileExists(certPath) && fileExists(secretPath) {
		return load(keyPath, certPath, secretPath)
	}
	return generate(keyPath, certPath, secretPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func load(keyPath, certPath, secretPath string) (*StaticProvider, error) {
	key, err := loadECKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("attestation: load key: %w", err)
	}
	cert, err := loadCert(certPath)
	if err != nil {
		return nil, fmt.Errorf("attestation: load cert: %w", err)
	}
	secret, err := loadSecret(secretPath)
	if err != nil {
		return nil, fmt.Errorf("attestation: load master secret: %w", err)
	}
	return &StaticProvider{key: key, cert: cert, secret: secret}, nil
}

func generate(keyPath, certPath, secretPath string) (*StaticProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("attestation: generate key: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "u2fkeyd attestation"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(20, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("attestation: create certificate: %w", err)
	}

	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return nil, fmt.Errorf("attestation: generate master secret: %w", err)
	}

	if err := saveECKey(keyPath, key); err != nil {
		return nil, fmt.Errorf("attestation: save key: %w", err)
	}
	if err := saveCert(certPath, der); err != nil {
		return nil, fmt.Errorf("attestation: save cert: %w", err)
	}
	if err := saveSecret(secretPath, secret); err != nil {
		return nil, fmt.Errorf("attestation: save master secret: %w", err)
	}

	return &StaticProvider{key: key, cert: der, secret: secret}, nil
}

func loadECKey(path string) (*ecdsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, errMissingPEMBlock
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

func loadCert(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errMissingPEMBlock
	}
	return block.Bytes, nil
}

func loadSecret(path string) ([32]byte, error) {
	var secret [32]byte
	b, err := os.ReadFile(path)
	if err != nil {
		return secret, err
	}
	if len(b) != 32 {
		return secret, fmt.Errorf("attestation: master secret file is not 32 bytes")
	}
	copy(secret[:], b)
	return secret, nil
}

func saveECKey(path string, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}
	block := &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
	return atomicWritePEM(path, block)
}

func saveCert(path string, der []byte) error {
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	return atomicWritePEM(path, block)
}

func saveSecret(path string, secret [32]byte) error {
	return atomicWrite(path, secret[:], 0600)
}

func atomicWritePEM(path string, block *pem.Block) error {
	return atomicWrite(path, pem.EncodeToMemory(block), 0600)
}

// atomicWrite mirrors counter.FileProvider's write-to-temp-then-rename
// persistence, tightening FilePersister.SaveMe's plain WriteFile so a
// crash mid-write never leaves a half-written key or certificate behind.
func atomicWrite(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

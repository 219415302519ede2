package attestation

import (
	"bytes"
	"crypto/x509"
	"path/filepath"
	"testing"
)

func paths(t *testing.T) (key, cert, secret string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "attestation.key"),
		filepath.Join(dir, "attestation.crt"),
		filepath.Join(dir, "master.secret")
}

func TestLoadOrGenerateMintsFreshIdentity(t *testing.T) {
	keyPath, certPath, secretPath := paths(t)

	p, err := LoadOrGenerate(keyPath, certPath, secretPath)
	if err != nil {
		t.Fatal(err)
	}
	if p.Key() == nil {
		t.Fatal("expected non-nil key")
	}
	if _, err := x509.ParseCertificate(p.CertDER()); err != nil {
		t.Fatalf("generated cert does not parse: %s", err)
	}

	var zero [32]byte
	if p.MasterSecret() == zero {
		t.Fatal("expected non-zero master secret")
	}
}

func TestLoadOrGenerateIsStableAcrossCalls(t *testing.T) {
	keyPath, certPath, secretPath := paths(t)

	first, err := LoadOrGenerate(keyPath, certPath, secretPath)
	if err != nil {
		t.Fatal(err)
	}

	second, err := LoadOrGenerate(keyPath, certPath, secretPath)
	if err != nil {
		t.Fatal(err)
	}

	if !first.Key().Equal(second.Key()) {
		t.Fatal("second call minted a different key instead of loading the persisted one")
	}
	if !bytes.Equal(first.CertDER(), second.CertDER()) {
		t.Fatal("second call minted a different certificate instead of loading the persisted one")
	}
	if first.MasterSecret() != second.MasterSecret() {
		t.Fatal("second call minted a different master secret instead of loading the persisted one")
	}
}

func TestLoadOrGeneratePartialFilesStillGenerate(t *testing.T) {
	keyPath, certPath, secretPath := paths(t)

	// Only the key file present: LoadOrGenerate must not try to load a
	// half-provisioned identity and should mint a brand new one instead.
	p1, err := LoadOrGenerate(keyPath, certPath, secretPath)
	if err != nil {
		t.Fatal(err)
	}

	otherKey, otherCert, otherSecret := paths(t)
	p2, err := LoadOrGenerate(otherKey, otherCert, otherSecret)
	if err != nil {
		t.Fatal(err)
	}
	if p1.Key().Equal(p2.Key()) {
		t.Fatal("expected independently generated identities to differ")
	}
}

package u2fcrypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"testing"
)

func testDefault(t *testing.T) *Default {
	t.Helper()
	var secret [32]byte
	copy(secret[:], []byte("test-master-secret-32-bytes!!!!"))
	d, err := NewDefault(secret)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	d := testDefault(t)
	plaintext := bytes.Repeat([]byte{0x42}, 64)

	ciphertext, err := d.Wrap(plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if len(ciphertext) != len(plaintext)+WrappedOverhead {
		t.Fatalf("ciphertext len = %d, want %d", len(ciphertext), len(plaintext)+WrappedOverhead)
	}
	if len(ciphertext) > MaxKeyHandleLen {
		t.Fatalf("ciphertext len %d exceeds MaxKeyHandleLen %d", len(ciphertext), MaxKeyHandleLen)
	}

	got, err := d.Unwrap(ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("unwrap mismatch")
	}
}

func TestUnwrapRejectsTamperedCiphertext(t *testing.T) {
	d := testDefault(t)
	ciphertext, err := d.Wrap([]byte("key handle plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF
	if _, err := d.Unwrap(ciphertext); err == nil {
		t.Fatal("expected tampered ciphertext to fail to unwrap")
	}
}

func TestMintOpenKeyHandleRoundTrip(t *testing.T) {
	d := testDefault(t)
	var priv, app [32]byte
	copy(priv[:], bytes.Repeat([]byte{0x01}, 32))
	copy(app[:], bytes.Repeat([]byte{0x02}, 32))

	handle, err := MintKeyHandle(d, priv, app)
	if err != nil {
		t.Fatal(err)
	}
	if len(handle) > 255 {
		t.Fatalf("key handle must fit in one byte, got %d", len(handle))
	}

	gotPriv, gotApp, err := OpenKeyHandle(d, handle)
	if err != nil {
		t.Fatal(err)
	}
	if gotPriv != priv || gotApp != app {
		t.Fatal("round-tripped key handle mismatch")
	}
}

func TestGenerateSignVerifyP256(t *testing.T) {
	d := testDefault(t)
	priv, pub, err := d.GenerateP256()
	if err != nil {
		t.Fatal(err)
	}
	if len(pub) != 65 || pub[0] != 0x04 {
		t.Fatalf("expected uncompressed point prefix 0x04, got %#x", pub[0])
	}
	digest := d.SHA256([]byte("message"))
	sig, err := d.SignP256(priv, digest)
	if err != nil {
		t.Fatal(err)
	}
	if !ecdsa.VerifyASN1(&priv.PublicKey, digest[:], sig) {
		t.Fatal("signature does not verify under the generated public key")
	}
}

func TestImportP256ReconstructsPublicKey(t *testing.T) {
	d := testDefault(t)
	priv, pub, err := d.GenerateP256()
	if err != nil {
		t.Fatal(err)
	}
	var scalar [32]byte
	priv.D.FillBytes(scalar[:])

	reimported, err := d.ImportP256(scalar)
	if err != nil {
		t.Fatal(err)
	}
	var reimportedPub [65]byte
	copy(reimportedPub[:], elliptic.Marshal(reimported.Curve, reimported.X, reimported.Y))
	if reimportedPub != pub {
		t.Fatal("imported key's public point does not match the originally generated one")
	}
}

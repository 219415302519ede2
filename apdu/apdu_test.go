package apdu

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/u2fcrypto"
)

type fakeCounter struct{ n uint32 }

func (c *fakeCounter) Next() (uint32, error) {
	c.n++
	return c.n, nil
}

type fakeAttestation struct {
	key  *ecdsa.PrivateKey
	cert []byte
}

func newFakeAttestation(t *testing.T) *fakeAttestation {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "u2fkeyd test attestation"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeAttestation{key: key, cert: der}
}

func (a *fakeAttestation) Key() *ecdsa.PrivateKey { return a.key }
func (a *fakeAttestation) CertDER() []byte        { return a.cert }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	var secret [32]byte
	copy(secret[:], []byte("apdu-test-master-secret-32bytes!"))
	crypto, err := u2fcrypto.NewDefault(secret)
	if err != nil {
		t.Fatal(err)
	}
	return &Handler{
		Crypto:      crypto,
		Counter:     &fakeCounter{},
		Attestation: newFakeAttestation(t),
		Presence:    StubPresence{},
	}
}

func buildRegisterAPDU(challengeParam, applicationParam []byte) []byte {
	apdu := []byte{0x00, u2f.U2FRegister, 0x00, 0x00, 0x00, 0x00, 64}
	apdu = append(apdu, challengeParam...)
	apdu = append(apdu, applicationParam...)
	return apdu
}

func buildAuthenticateAPDU(p1 byte, challengeParam, applicationParam, keyHandle []byte) []byte {
	lc := 32 + 32 + 1 + len(keyHandle)
	apdu := []byte{0x00, u2f.U2FAuthenticate, p1, 0x00, byte(lc >> 16), byte(lc >> 8), byte(lc)}
	apdu = append(apdu, challengeParam...)
	apdu = append(apdu, applicationParam...)
	apdu = append(apdu, byte(len(keyHandle)))
	apdu = append(apdu, keyHandle...)
	return apdu
}

func sw(resp []byte) uint16 {
	return uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
}

func TestVersion(t *testing.T) {
	h := newTestHandler(t)
	apdu := []byte{0x00, u2f.U2FVersion, 0x00, 0x00, 0x00, 0x00, 0x00}
	resp := h.Handle(apdu)
	want := append([]byte("U2F_V2"), 0x90, 0x00)
	if !bytes.Equal(resp, want) {
		t.Fatalf("got %x, want %x", resp, want)
	}
}

func TestRegisterThenAuthenticateHappyPath(t *testing.T) {
	h := newTestHandler(t)
	challengeParam1 := bytes.Repeat([]byte{0x11}, 32)
	appParam := bytes.Repeat([]byte{0x22}, 32)

	regResp := h.Handle(buildRegisterAPDU(challengeParam1, appParam))
	if sw(regResp) != u2f.SWNoError {
		t.Fatalf("register sw = %#x, want SW_NO_ERROR", sw(regResp))
	}
	if regResp[0] != 0x05 {
		t.Fatalf("register reserved byte = %#x, want 0x05", regResp[0])
	}
	pubKey := regResp[1:66]
	keyHandleSize := int(regResp[66])
	keyHandle := regResp[67 : 67+keyHandleSize]

	challengeParam2 := bytes.Repeat([]byte{0x33}, 32)
	authResp := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthEnforce, challengeParam2, appParam, keyHandle))
	if sw(authResp) != u2f.SWNoError {
		t.Fatalf("authenticate sw = %#x, want SW_NO_ERROR", sw(authResp))
	}
	if authResp[0] != 1 {
		t.Fatalf("presence byte = %d, want 1", authResp[0])
	}
	counterBE := authResp[1:5]
	sigDER := authResp[5 : len(authResp)-2]

	x := new(big.Int).SetBytes(pubKey[1:33])
	y := new(big.Int).SetBytes(pubKey[33:65])
	credPub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	signedData := append([]byte{}, appParam...)
	signedData = append(signedData, authResp[0])
	signedData = append(signedData, counterBE...)
	signedData = append(signedData, challengeParam2...)
	digest := h.Crypto.SHA256(signedData)

	if !ecdsa.VerifyASN1(credPub, digest[:], sigDER) {
		t.Fatal("authenticate signature does not verify under the register-returned public key")
	}

	// A second AUTHENTICATE must yield a strictly greater counter.
	authResp2 := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthEnforce, challengeParam2, appParam, keyHandle))
	if authResp2[1:5][3] <= counterBE[3] {
		t.Fatalf("counter did not increase: %v -> %v", counterBE, authResp2[1:5])
	}
}

func TestAuthenticateWrongApplicationParam(t *testing.T) {
	h := newTestHandler(t)
	challengeParam := bytes.Repeat([]byte{0x11}, 32)
	appParamA1 := bytes.Repeat([]byte{0x22}, 32)
	appParamA2 := bytes.Repeat([]byte{0x99}, 32)

	regResp := h.Handle(buildRegisterAPDU(challengeParam, appParamA1))
	keyHandleSize := int(regResp[66])
	keyHandle := regResp[67 : 67+keyHandleSize]

	authResp := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthEnforce, challengeParam, appParamA2, keyHandle))
	if sw(authResp) != u2f.SWWrongData {
		t.Fatalf("sw = %#x, want SW_WRONG_DATA", sw(authResp))
	}
	if len(authResp) != 2 {
		t.Fatalf("wrong-data response should carry no body, got %d bytes", len(authResp))
	}
}

func TestAuthenticateCheckKnownKeyHandle(t *testing.T) {
	h := newTestHandler(t)
	challengeParam := bytes.Repeat([]byte{0x11}, 32)
	appParam := bytes.Repeat([]byte{0x22}, 32)

	regResp := h.Handle(buildRegisterAPDU(challengeParam, appParam))
	keyHandleSize := int(regResp[66])
	keyHandle := regResp[67 : 67+keyHandleSize]

	checkResp := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthCheck, challengeParam, appParam, keyHandle))
	if sw(checkResp) != u2f.SWConditionsNotSatisfied {
		t.Fatalf("sw = %#x, want SW_CONDITIONS_NOT_SATISFIED", sw(checkResp))
	}

	wrongApp := bytes.Repeat([]byte{0x55}, 32)
	checkResp2 := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthCheck, challengeParam, wrongApp, keyHandle))
	if sw(checkResp2) != u2f.SWWrongData {
		t.Fatalf("sw = %#x, want SW_WRONG_DATA", sw(checkResp2))
	}
}

func TestAuthenticateNoEnforceReturnsFullResponseWithZeroPresence(t *testing.T) {
	h := newTestHandler(t)
	challengeParam := bytes.Repeat([]byte{0x11}, 32)
	appParam := bytes.Repeat([]byte{0x22}, 32)

	regResp := h.Handle(buildRegisterAPDU(challengeParam, appParam))
	keyHandleSize := int(regResp[66])
	keyHandle := regResp[67 : 67+keyHandleSize]

	authResp := h.Handle(buildAuthenticateAPDU(u2f.U2FAuthNoEnforce, challengeParam, appParam, keyHandle))
	if sw(authResp) != u2f.SWNoError {
		t.Fatalf("sw = %#x, want SW_NO_ERROR", sw(authResp))
	}
	if authResp[0] != 0 {
		t.Fatalf("presence byte = %d, want 0", authResp[0])
	}
	if len(authResp) <= 2 {
		t.Fatal("no-enforce must still return a full response body, not an empty one")
	}
}

func TestUnknownInstructionIsNotSupported(t *testing.T) {
	h := newTestHandler(t)
	apdu := []byte{0x00, 0x77, 0x00, 0x00, 0x00, 0x00, 0x00}
	resp := h.Handle(apdu)
	if sw(resp) != u2f.SWInsNotSupported {
		t.Fatalf("sw = %#x, want SW_INS_NOT_SUPPORTED", sw(resp))
	}
}

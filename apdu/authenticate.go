package apdu

import (
	"encoding/binary"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/u2fcrypto"
)

const authFixedLen = challengeParamLen + applicationParamLen + 1 // + key_handle_size

// handleAuthenticate implements spec.md §4.5's U2F_AUTHENTICATE, sub-typed
// by p1 into CHECK / ENFORCE / NO_ENFORCE. The APDU-declared key handle
// size is used identically on every sub-path — resolving spec.md §9 Open
// Question (a), which notes the source inconsistently used two different
// size fields for the same value.
func (h *Handler) handleAuthenticate(header Header, data []byte) []byte {
	if len(data) < authFixedLen {
		return swOnly(u2f.SWWrongData)
	}
	challengeParam := data[:challengeParamLen]
	applicationParam := data[challengeParamLen : challengeParamLen+applicationParamLen]
	keyHandleSize := int(data[challengeParamLen+applicationParamLen])
	if len(data) != authFixedLen+keyHandleSize {
		return swOnly(u2f.SWWrongData)
	}
	keyHandle := data[authFixedLen : authFixedLen+keyHandleSize]

	privScalar, appParam, err := u2fcrypto.OpenKeyHandle(h.Crypto, keyHandle)
	if err != nil {
		// Decryption failure: no information leakage beyond SW_WRONG_DATA.
		return swOnly(u2f.SWWrongData)
	}
	if !constantTimeEqual(appParam[:], applicationParam) {
		return swOnly(u2f.SWWrongData)
	}

	switch header.P1 {
	case u2f.U2FAuthCheck:
		// Key is known and bound to this application: report as much,
		// without performing the authentication itself.
		return swOnly(u2f.SWConditionsNotSatisfied)
	case u2f.U2FAuthEnforce:
		if !h.Presence.UserPresent() {
			return swOnly(u2f.SWConditionsNotSatisfied)
		}
		return h.signAssertion(privScalar, applicationParam, challengeParam, 1)
	case u2f.U2FAuthNoEnforce:
		// spec.md §9 Open Question (b): unlike the source (which returned
		// null here), this path behaves like ENFORCE with presence=0 and
		// always returns a full response.
		return h.signAssertion(privScalar, applicationParam, challengeParam, 0)
	default:
		return swOnly(u2f.SWWrongData)
	}
}

// signAssertion signs with the credential's own private key — recovered
// from the key handle, never the attestation key — so the response
// verifies under the public key REGISTER returned for this credential.
func (h *Handler) signAssertion(privScalar [32]byte, applicationParam, challengeParam []byte, presence byte) []byte {
	counter, err := h.Counter.Next()
	if err != nil {
		h.logDebug("authenticate: counter persist failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	credentialKey, err := h.Crypto.ImportP256(privScalar)
	if err != nil {
		h.logDebug("authenticate: key import failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	var counterBE [4]byte
	binary.BigEndian.PutUint32(counterBE[:], counter)

	signedData := make([]byte, 0, applicationParamLen+1+4+challengeParamLen)
	signedData = append(signedData, applicationParam...)
	signedData = append(signedData, presence)
	signedData = append(signedData, counterBE[:]...)
	signedData = append(signedData, challengeParam...)

	digest := h.Crypto.SHA256(signedData)
	sig, err := h.Crypto.SignP256(credentialKey, digest)
	if err != nil {
		h.logDebug("authenticate: signing failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	resp := make([]byte, 0, 1+4+len(sig)+2)
	resp = append(resp, presence)
	resp = append(resp, counterBE[:]...)
	resp = append(resp, sig...)
	return appendSW(resp, u2f.SWNoError)
}

// constantTimeEqual avoids leaking how much of applicationParam matched
// through timing, even though both inputs are already non-secret by the
// time a mismatch is possible.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

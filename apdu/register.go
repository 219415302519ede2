package apdu

import (
	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/u2fcrypto"
)

const (
	challengeParamLen   = 32
	applicationParamLen = 32
	registerDataLen     = challengeParamLen + applicationParamLen
	registerReservedByte = 0x05
	signedDataReserved   = 0x00
)

// handleRegister implements spec.md §4.5's U2F_REGISTER: mint a fresh
// keypair, wrap it into a key handle bound to applicationParam, sign the
// registration data with the attestation key, and assemble the response.
func (h *Handler) handleRegister(data []byte) []byte {
	if len(data) != registerDataLen {
		return swOnly(u2f.SWWrongData)
	}
	challengeParam := data[:challengeParamLen]
	applicationParam := data[challengeParamLen:registerDataLen]

	priv, pub, err := h.Crypto.GenerateP256()
	if err != nil {
		h.logDebug("register: key generation failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	var privScalar, appParam [32]byte
	priv.D.FillBytes(privScalar[:])
	copy(appParam[:], applicationParam)

	keyHandle, err := u2fcrypto.MintKeyHandle(h.Crypto, privScalar, appParam)
	if err != nil {
		h.logDebug("register: key handle mint failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}
	if len(keyHandle) > 255 {
		// Cannot happen with u2fcrypto.Default, but a pluggable Facade
		// could violate the one-byte size invariant — fail closed.
		return swOnly(u2f.SWWrongData)
	}

	signedData := make([]byte, 0, 1+applicationParamLen+challengeParamLen+len(keyHandle)+65)
	signedData = append(signedData, signedDataReserved)
	signedData = append(signedData, applicationParam...)
	signedData = append(signedData, challengeParam...)
	signedData = append(signedData, keyHandle...)
	signedData = append(signedData, pub[:]...)

	digest := h.Crypto.SHA256(signedData)
	sig, err := h.Crypto.SignP256(h.Attestation.Key(), digest)
	if err != nil {
		h.logDebug("register: attestation signing failed: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	resp := make([]byte, 0, 1+65+1+len(keyHandle)+len(h.Attestation.CertDER())+len(sig)+2)
	resp = append(resp, registerReservedByte)
	resp = append(resp, pub[:]...)
	resp = append(resp, byte(len(keyHandle)))
	resp = append(resp, keyHandle...)
	resp = append(resp, h.Attestation.CertDER()...)
	resp = append(resp, sig...)
	return appendSW(resp, u2f.SWNoError)
}

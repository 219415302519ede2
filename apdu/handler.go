package apdu

import (
	"crypto/ecdsa"

	"github.com/op/go-logging"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/u2fcrypto"
)

// Counter is the monotonic authentication counter spec.md §4.6 delegates
// to persistent storage. Handler only needs Next — how it is durably
// stored is counter.Provider's concern.
type Counter interface {
	Next() (uint32, error)
}

// Attestation is the fixed attestation identity spec.md §4.6 delegates to
// external storage of the private key at rest. Handler only needs the key
// and certificate — how they are provisioned is attestation.Provider's
// concern.
type Attestation interface {
	Key() *ecdsa.PrivateKey
	CertDER() []byte
}

// Handler is the U2F raw-message (APDU) state machine: spec.md §4.5. It
// holds no mutable state of its own beyond what Crypto/Counter/Attestation
// own, so one Handler can be shared by every channel.
type Handler struct {
	Crypto      u2fcrypto.Facade
	Counter     Counter
	Attestation Attestation
	Presence    Presence
	Log         *logging.Logger
}

// Handle parses apdu as a 7-byte-header APDU and dispatches on ins. It
// never returns an error: every failure mode is represented on the wire as
// a trailing SW code, per spec.md §4.5/§7 — a malformed APDU is still a
// well-formed CMD_MSG response.
func (h *Handler) Handle(apduBytes []byte) []byte {
	header, data, err := ParseHeader(apduBytes)
	if err != nil {
		h.logDebug("malformed apdu: %s", err)
		return swOnly(u2f.SWWrongData)
	}

	switch header.INS {
	case u2f.U2FRegister:
		return h.handleRegister(data)
	case u2f.U2FAuthenticate:
		return h.handleAuthenticate(header, data)
	case u2f.U2FVersion:
		return h.handleVersion()
	default:
		return swOnly(u2f.SWInsNotSupported)
	}
}

func (h *Handler) logDebug(format string, args ...interface{}) {
	if h.Log != nil {
		h.Log.Debugf(format, args...)
	}
}

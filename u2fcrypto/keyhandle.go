package u2fcrypto

import "fmt"

// PrivScalarLen and AppParamLen are the fixed widths making up a key
// handle's plaintext, per spec.md §3: "privkey_scalar || application_param".
const (
	PrivScalarLen = 32
	AppParamLen   = 32
	plaintextLen  = PrivScalarLen + AppParamLen
)

// MaxKeyHandleLen is the largest wrapped key handle this facade can ever
// produce: it must fit in the one-byte key_handle_size field spec.md §3
// requires. 64 (plaintext) + WrappedOverhead = 92, comfortably under 255 —
// resolving spec.md §9 Open Question (c).
const MaxKeyHandleLen = plaintextLen + WrappedOverhead

// MintKeyHandle wraps (privScalar || applicationParam) into an opaque key
// handle via f.Wrap.
func MintKeyHandle(f Facade, privScalar [32]byte, applicationParam [32]byte) ([]byte, error) {
	plaintext := make([]byte, 0, plaintextLen)
	plaintext = append(plaintext, privScalar[:]...)
	plaintext = append(plaintext, applicationParam[:]...)
	return f.Wrap(plaintext)
}

// OpenKeyHandle unwraps a key handle and splits it back into its private
// scalar and bound application param. Spec.md §3's invariant — the
// decrypted application_param tail must equal the request's — is the
// caller's responsibility to check; OpenKeyHandle only reports whether the
// handle decrypts and has the expected shape.
func OpenKeyHandle(f Facade, handle []byte) (privScalar [32]byte, applicationParam [32]byte, err error) {
	plaintext, err := f.Unwrap(handle)
	if err != nil {
		return
	}
	if len(plaintext) != plaintextLen {
		err = fmt.Errorf("key handle has unexpected plaintext length %d", len(plaintext))
		return
	}
	copy(privScalar[:], plaintext[:PrivScalarLen])
	copy(applicationParam[:], plaintext[PrivScalarLen:])
	return
}

package apdu

import "github.com/kryptco/u2fkeyd"

var versionString = []byte("U2F_V2")

// handleVersion implements spec.md §4.5's U2F_VERSION: the fixed ASCII
// string "U2F_V2" followed by SW_NO_ERROR.
func (h *Handler) handleVersion() []byte {
	resp := append([]byte{}, versionString...)
	return appendSW(resp, u2f.SWNoError)
}

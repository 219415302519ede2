package apdu

import "encoding/binary"

// appendSW appends a two-byte big-endian status word to resp — the last
// two bytes of every CMD_MSG response payload, per spec.md §4.5.
func appendSW(resp []byte, sw uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], sw)
	return append(resp, b[:]...)
}

// swOnly builds a response consisting of nothing but a status word, used
// for every error path — spec.md §7 requires a malformed APDU still
// produce a well-formed CMD_MSG response, never a CMD_ERROR.
func swOnly(sw uint16) []byte {
	return appendSW(nil, sw)
}

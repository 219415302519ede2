// Package apdu implements the U2F raw-message layer: parsing the 7-byte
// APDU header carried as a CMD_MSG payload, dispatching REGISTER,
// AUTHENTICATE and VERSION, and building response bodies with their
// trailing status words.
package apdu

import "fmt"

// Header is the 7-byte APDU header: cla, ins, p1, p2, and a 3-byte
// extended-length lc. le is accepted on the wire but unused by any of the
// three instructions this authenticator implements.
type Header struct {
	CLA byte
	INS byte
	P1  byte
	P2  byte
	Lc  uint32 // 24-bit extended length
}

// ParseHeader reads the 7-byte header off the front of an APDU and returns
// the data bytes it declares (exactly Lc of them) plus whatever trailing
// bytes (le, or nothing) follow.
func ParseHeader(apdu []byte) (h Header, data []byte, err error) {
	if len(apdu) < 7 {
		err = fmt.Errorf("apdu shorter than the 7-byte header")
		return
	}
	h.CLA = apdu[0]
	h.INS = apdu[1]
	h.P1 = apdu[2]
	h.P2 = apdu[3]
	h.Lc = uint32(apdu[4])<<16 | uint32(apdu[5])<<8 | uint32(apdu[6])

	rest := apdu[7:]
	if uint32(len(rest)) < h.Lc {
		err = fmt.Errorf("apdu data shorter than declared lc")
		return
	}
	data = rest[:h.Lc]
	return
}

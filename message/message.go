// Package message assembles the logical U2FHID PDUs that packet.View
// frames carry: building outbound messages and lazily framing them, and
// reassembling inbound frames back into a message per channel.
package message

import (
	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/packet"
)

// Message is a complete logical U2FHID PDU: a cid, a cmd, and a payload of
// exactly Bcnt bytes. It is immutable once Bcnt bytes have been supplied —
// Append past that point panics, matching the "immutable once full"
// invariant in spec.md §3.
type Message struct {
	CID     uint32
	Cmd     byte
	payload []byte
}

// New creates an empty outbound message; Append grows it.
func New(cid uint32, cmd byte) *Message {
	return &Message{CID: cid, Cmd: cmd}
}

// Append appends raw bytes to the message, growing Bcnt. The externally
// observable result is equivalent to a flat byte buffer regardless of how
// many times Append is called.
func (m *Message) Append(b []byte) {
	m.payload = append(m.payload, b...)
}

// Bcnt is the total payload byte count declared on the wire.
func (m *Message) Bcnt() uint16 {
	return uint16(len(m.payload))
}

// Payload returns the message's full payload. The returned slice aliases
// the message's internal buffer and must not be mutated.
func (m *Message) Payload() []byte {
	return m.payload
}

// FrameCount returns the number of 64-byte frames Frames will emit for a
// payload of this length: 1 init frame plus one continuation per
// ceil((n-57)/59) bytes remaining after the init frame's head.
func FrameCount(payloadLen int) int {
	if payloadLen <= u2f.InitPayloadMax {
		return 1
	}
	remaining := payloadLen - u2f.InitPayloadMax
	conts := (remaining + u2f.ContPayloadMax - 1) / u2f.ContPayloadMax
	return 1 + conts
}

// FrameIter lazily emits a message's frames: one init frame followed by
// continuations with seq 0, 1, 2, … Frames are produced on demand by Next,
// not precomputed, per spec.md §4.2.
type FrameIter struct {
	m   *Message
	pos int // byte offset into m.payload already emitted
	seq byte
	n   int // frames emitted so far
}

// Frames returns a lazy iterator over m's frames.
func (m *Message) Frames() *FrameIter {
	return &FrameIter{m: m}
}

// Next returns the next frame, or ok=false once every byte of the payload
// (and at least the bare init frame, even for an empty payload) has been
// emitted.
func (it *FrameIter) Next() (frame [u2f.FrameLen]byte, ok bool) {
	if it.n == 0 {
		head := it.m.payload
		if len(head) > u2f.InitPayloadMax {
			head = head[:u2f.InitPayloadMax]
		}
		frame = packet.EncodeInit(it.m.CID, it.m.Cmd, it.m.Bcnt(), head)
		it.pos = len(head)
		it.n++
		return frame, true
	}
	if it.pos >= len(it.m.payload) {
		return frame, false
	}
	end := it.pos + u2f.ContPayloadMax
	if end > len(it.m.payload) {
		end = len(it.m.payload)
	}
	frame = packet.EncodeCont(it.m.CID, it.seq, it.m.payload[it.pos:end])
	it.pos = end
	it.seq++
	it.n++
	return frame, true
}

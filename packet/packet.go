// Package packet encodes and decodes single 64-byte U2FHID frames. It has
// no notion of a logical message spanning multiple frames — that is
// message.Assembler's job — and allocates nothing beyond the returned frame.
package packet

import (
	"encoding/binary"

	"github.com/kryptco/u2fkeyd"
)

// View is the decoded form of one 64-byte frame: exactly one of Init or
// Cont is non-nil, discriminated by the top bit of byte 4 (cmd/seq).
type View struct {
	Init *InitView
	Cont *ContView
}

type InitView struct {
	CID  uint32
	Cmd  byte
	Bcnt uint16
	Head []byte // up to u2f.InitPayloadMax bytes, not copied from frame
}

type ContView struct {
	CID  uint32
	Seq  byte
	Tail []byte // up to u2f.ContPayloadMax bytes, not copied from frame
}

// EncodeInit lays out an init packet: cid (BE u32), cmd (top bit set),
// bcnt (BE u16), then up to u2f.InitPayloadMax bytes of head, zero-padded.
func EncodeInit(cid uint32, cmd byte, bcnt uint16, head []byte) (frame [u2f.FrameLen]byte) {
	if len(head) > u2f.InitPayloadMax {
		head = head[:u2f.InitPayloadMax]
	}
	binary.BigEndian.PutUint32(frame[0:4], cid)
	frame[4] = cmd | u2f.CmdFlag
	binary.BigEndian.PutUint16(frame[5:7], bcnt)
	copy(frame[7:], head)
	return
}

// EncodeCont lays out a continuation packet: cid, seq (top bit clear,
// 0..=0x7F), then up to u2f.ContPayloadMax bytes of tail, zero-padded.
func EncodeCont(cid uint32, seq byte, tail []byte) (frame [u2f.FrameLen]byte) {
	if len(tail) > u2f.ContPayloadMax {
		tail = tail[:u2f.ContPayloadMax]
	}
	binary.BigEndian.PutUint32(frame[0:4], cid)
	frame[4] = seq &^ u2f.CmdFlag
	copy(frame[5:], tail)
	return
}

// Decode discriminates a 64-byte frame into an init or continuation view.
// The returned Head/Tail slices alias frame and must be copied by the
// caller before the frame is reused.
func Decode(frame *[u2f.FrameLen]byte) (v View, err error) {
	cid := binary.BigEndian.Uint32(frame[0:4])
	b4 := frame[4]
	if b4&u2f.CmdFlag != 0 {
		v.Init = &InitView{
			CID:  cid,
			Cmd:  b4,
			Bcnt: binary.BigEndian.Uint16(frame[5:7]),
			Head: frame[7:],
		}
		return
	}
	v.Cont = &ContView{
		CID:  cid,
		Seq:  b4,
		Tail: frame[5:],
	}
	return
}

// DecodeSlice is Decode for a caller holding a []byte rather than a fixed
// array; it returns u2f.ErrInvalidFrame if the slice is not exactly
// u2f.FrameLen bytes.
func DecodeSlice(frame []byte) (v View, err error) {
	if len(frame) != u2f.FrameLen {
		err = u2f.ErrInvalidFrame
		return
	}
	var arr [u2f.FrameLen]byte
	copy(arr[:], frame)
	return Decode(&arr)
}

package packet

import (
	"bytes"
	"testing"

	"github.com/kryptco/u2fkeyd"
)

func TestEncodeDecodeInit(t *testing.T) {
	head := bytes.Repeat([]byte{0xAB}, 57)
	frame := EncodeInit(0x01020304, 0x86, 200, head)

	if len(frame) != u2f.FrameLen {
		t.Fatalf("frame length = %d, want %d", len(frame), u2f.FrameLen)
	}

	v, err := Decode(&frame)
	if err != nil {
		t.Fatal(err)
	}
	if v.Init == nil || v.Cont != nil {
		t.Fatalf("expected init view, got %+v", v)
	}
	if v.Init.CID != 0x01020304 {
		t.Errorf("cid = %#x, want %#x", v.Init.CID, 0x01020304)
	}
	if v.Init.Cmd != 0x86 {
		t.Errorf("cmd = %#x, want %#x", v.Init.Cmd, 0x86)
	}
	if v.Init.Bcnt != 200 {
		t.Errorf("bcnt = %d, want 200", v.Init.Bcnt)
	}
	if !bytes.Equal(v.Init.Head, head) {
		t.Errorf("head mismatch")
	}
}

func TestEncodeInitTruncatesOversizeHead(t *testing.T) {
	head := bytes.Repeat([]byte{0x01}, 100)
	frame := EncodeInit(1, 0x01, 57, head)
	v, err := Decode(&frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Init.Head) != u2f.InitPayloadMax {
		t.Fatalf("head len = %d, want %d", len(v.Init.Head), u2f.InitPayloadMax)
	}
}

func TestEncodeDecodeCont(t *testing.T) {
	tail := bytes.Repeat([]byte{0xCD}, 59)
	frame := EncodeCont(0xFFFFFFFF, 0x7F, tail)

	v, err := Decode(&frame)
	if err != nil {
		t.Fatal(err)
	}
	if v.Cont == nil || v.Init != nil {
		t.Fatalf("expected cont view, got %+v", v)
	}
	if v.Cont.CID != 0xFFFFFFFF {
		t.Errorf("cid = %#x, want broadcast", v.Cont.CID)
	}
	if v.Cont.Seq != 0x7F {
		t.Errorf("seq = %#x, want 0x7F", v.Cont.Seq)
	}
	if !bytes.Equal(v.Cont.Tail, tail) {
		t.Errorf("tail mismatch")
	}
}

func TestContSeqTopBitAlwaysClear(t *testing.T) {
	frame := EncodeCont(1, 0xFF, nil)
	v, err := Decode(&frame)
	if err != nil {
		t.Fatal(err)
	}
	if v.Init != nil {
		t.Fatalf("seq 0xFF with top bit forced clear should decode as cont, got init")
	}
	if v.Cont.Seq != 0x7F {
		t.Errorf("seq = %#x, want top bit masked to 0x7F", v.Cont.Seq)
	}
}

func TestDecodeSliceRejectsWrongLength(t *testing.T) {
	_, err := DecodeSlice(make([]byte, 63))
	if err != u2f.ErrInvalidFrame {
		t.Fatalf("err = %v, want ErrInvalidFrame", err)
	}
}

package message

import (
	"bytes"
	"testing"
	"time"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/packet"
)

func TestFrameCountMatchesSpecFormula(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1},
		{57, 1},
		{58, 2},
		{116, 2},
		{200, 4}, // 57 + 59 + 59 + 25
	}
	for _, c := range cases {
		if got := FrameCount(c.n); got != c.want {
			t.Errorf("FrameCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestSplitThenReassembleIsIdentity(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 200)
	m := New(0x11223344, 0x81)
	m.Append(payload)

	var frames [][u2f.FrameLen]byte
	it := m.Frames()
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		frames = append(frames, f)
	}
	if len(frames) != FrameCount(len(payload)) {
		t.Fatalf("got %d frames, want %d", len(frames), FrameCount(len(payload)))
	}

	now := time.Now()
	r := NewReassembler()
	var result Result
	for i, f := range frames {
		v, err := packet.Decode(&f)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			if v.Init == nil {
				t.Fatal("first frame should decode as init")
			}
			result = r.HandleInit(v.Init.CID, v.Init.Cmd, v.Init.Bcnt, v.Init.Head, now)
		} else {
			if v.Cont == nil {
				t.Fatal("subsequent frames should decode as cont")
			}
			result = r.HandleCont(v.Cont.CID, v.Cont.Seq, v.Cont.Tail, now)
		}
	}
	if result.Outcome != OutcomeDelivered {
		t.Fatalf("outcome = %v, want delivered", result.Outcome)
	}
	if result.Message.CID != m.CID || result.Message.Cmd != m.Cmd {
		t.Fatalf("cid/cmd mismatch")
	}
	if !bytes.Equal(result.Message.Payload(), payload) {
		t.Fatalf("reassembled payload mismatch")
	}
}

func TestEmptyPayloadStillEmitsOneFrame(t *testing.T) {
	m := New(1, 0x86)
	it := m.Frames()
	_, ok := it.Next()
	if !ok {
		t.Fatal("expected one init frame for empty payload")
	}
	_, ok = it.Next()
	if ok {
		t.Fatal("expected no further frames")
	}
}

package u2fhid

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/apdu"
	"github.com/kryptco/u2fkeyd/device"
	"github.com/kryptco/u2fkeyd/message"
	"github.com/kryptco/u2fkeyd/packet"
)

// readMessage drives dev's ReadFrame loop through a local reassembler
// until a full message or HID-transport error arrives, the same shape the
// dispatcher itself uses server-side.
func readMessage(t *testing.T, dev device.Device) *message.Message {
	t.Helper()
	r := message.NewReassembler()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := dev.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %s", err)
		}
		v, err := packet.Decode(&frame)
		if err != nil {
			t.Fatalf("decode: %s", err)
		}
		now := time.Now()
		var res message.Result
		if v.Init != nil {
			res = r.HandleInit(v.Init.CID, v.Init.Cmd, v.Init.Bcnt, v.Init.Head, now)
		} else {
			res = r.HandleCont(v.Cont.CID, v.Cont.Seq, v.Cont.Tail, now)
		}
		switch res.Outcome {
		case message.OutcomeDelivered:
			return res.Message
		case message.OutcomeError:
			t.Fatalf("unexpected HID error code %#x", res.ErrCode)
		}
	}
	t.Fatal("timed out waiting for response message")
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, device.Device, func()) {
	t.Helper()
	host, auth := device.NewLoopbackPair()
	d, err := New(auth, &apdu.Handler{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := make(chan struct{})
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(stop) }()

	cleanup := func() {
		close(stop)
		host.Close()
		auth.Close()
	}
	return d, host, cleanup
}

func TestInitHandshake(t *testing.T) {
	_, host, cleanup := newTestDispatcher(t)
	defer cleanup()

	nonce := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	frame := packet.EncodeInit(u2f.BroadcastCID, u2f.CmdInit, uint16(len(nonce)), nonce)
	if err := host.WriteFrame(frame); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, host)
	if msg.CID != u2f.BroadcastCID {
		t.Fatalf("response cid = %#x, want broadcast", msg.CID)
	}
	if msg.Cmd != u2f.CmdInit {
		t.Fatalf("response cmd = %#x, want CMD_INIT", msg.Cmd)
	}
	payload := msg.Payload()
	if len(payload) != 17 {
		t.Fatalf("response payload len = %d, want 17", len(payload))
	}
	if !bytes.Equal(payload[:8], nonce) {
		t.Fatalf("nonce echo mismatch: got %x, want %x", payload[:8], nonce)
	}
	newCID := binary.BigEndian.Uint32(payload[8:12])
	if newCID == u2f.InvalidCID || newCID == u2f.BroadcastCID {
		t.Fatalf("allocated reserved cid %#x", newCID)
	}
	if payload[12] != u2f.ProtocolVersion {
		t.Fatalf("protocol version = %d, want %d", payload[12], u2f.ProtocolVersion)
	}
	if payload[16] != 0x00 {
		t.Fatalf("capability flags = %#x, want 0", payload[16])
	}
}

func allocateChannel(t *testing.T, host device.Device) uint32 {
	t.Helper()
	nonce := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	frame := packet.EncodeInit(u2f.BroadcastCID, u2f.CmdInit, uint16(len(nonce)), nonce)
	if err := host.WriteFrame(frame); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, host)
	return binary.BigEndian.Uint32(msg.Payload()[8:12])
}

func TestPingRoundTrip(t *testing.T) {
	_, host, cleanup := newTestDispatcher(t)
	defer cleanup()

	cid := allocateChannel(t, host)

	payload := bytes.Repeat([]byte{0xAB}, 200)
	out := message.New(cid, u2f.CmdPing)
	out.Append(payload)

	it := out.Frames()
	nFrames := 0
	for {
		frame, ok := it.Next()
		if !ok {
			break
		}
		if err := host.WriteFrame(frame); err != nil {
			t.Fatal(err)
		}
		nFrames++
	}
	if nFrames != 4 {
		t.Fatalf("sent %d frames, want 4 (1 init + 3 cont)", nFrames)
	}

	msg := readMessage(t, host)
	if msg.Cmd != u2f.CmdPing {
		t.Fatalf("response cmd = %#x, want CMD_PING", msg.Cmd)
	}
	if !bytes.Equal(msg.Payload(), payload) {
		t.Fatal("echoed payload does not match what was sent")
	}
}

func TestReassemblyTimeout(t *testing.T) {
	_, host, cleanup := newTestDispatcher(t)
	defer cleanup()

	cid := allocateChannel(t, host)

	head := bytes.Repeat([]byte{0x01}, u2f.InitPayloadMax)
	frame := packet.EncodeInit(cid, u2f.CmdPing, 200, head)
	if err := host.WriteFrame(frame); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, host)
	if msg.Cmd != u2f.CmdError {
		t.Fatalf("response cmd = %#x, want CMD_ERROR", msg.Cmd)
	}
	if len(msg.Payload()) != 1 || msg.Payload()[0] != u2f.ErrMsgTimeout {
		t.Fatalf("error payload = %v, want [ERR_MSG_TIMEOUT]", msg.Payload())
	}
}

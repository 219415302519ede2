// Package u2fhid is the U2FHID dispatcher spec.md §4.4 describes: it reads
// 64-byte frames from a device.Device, feeds them through a per-channel
// channel.Table/message.Reassembler, routes completed messages by command
// byte, and writes response frames back. It is the same single blocking-
// read event loop shape krd.go runs its control_server accept loop in,
// generalized from one long-lived socket connection to many short-lived
// HID channels multiplexed over one device.
package u2fhid

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/keybase/saltpack/encoding/basex"
	"github.com/op/go-logging"
	uuid "github.com/satori/go.uuid"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/apdu"
	"github.com/kryptco/u2fkeyd/channel"
	"github.com/kryptco/u2fkeyd/device"
	"github.com/kryptco/u2fkeyd/message"
	"github.com/kryptco/u2fkeyd/packet"
)

// cidLabel renders a cid the same compact base62 way util.go's
// Rand256Base62 encodes random session identifiers, so per-channel log
// lines stay short without losing uniqueness.
func cidLabel(cid uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], cid)
	return basex.Base62StdEncoding.EncodeToString(b[:])
}

// reapInterval is how often the background sweep checks for channels stuck
// Receiving past spec.md's 500ms deadline, and for idle channels past the
// 1s reap deadline. It must be well under ReassemblyTimeoutMS so the
// timeout scenario in spec.md §8 is observed promptly.
const reapInterval = 25 * time.Millisecond

// Dispatcher owns one device.Device for the lifetime of the process.
type Dispatcher struct {
	Device  device.Device
	Table   *channel.Table
	Handler *apdu.Handler
	Log     *logging.Logger

	writeMu sync.Mutex
}

// New wires a Dispatcher over dev, allocating its own channel table.
func New(dev device.Device, handler *apdu.Handler, log *logging.Logger) (*Dispatcher, error) {
	table, err := channel.NewTable()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{Device: dev, Table: table, Handler: handler, Log: log}, nil
}

// Run drives the event loop until stop is closed or the device read fails.
// A read failure is treated as a fatal condition per spec.md §7: the loop
// exits and returns the error to the caller, which owns the decision to
// terminate the process.
func (d *Dispatcher) Run(stop <-chan struct{}) error {
	reapDone := make(chan struct{})
	go d.reapLoop(stop, reapDone)
	defer func() { <-reapDone }()

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		frame, err := d.Device.ReadFrame()
		if err != nil {
			return err
		}
		d.handleFrame(frame)
	}
}

func (d *Dispatcher) reapLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			d.checkTimeouts(now)
			d.Table.ReapIdle(now, u2f.ChannelIdleTimeoutMS*time.Millisecond)
		}
	}
}

func (d *Dispatcher) checkTimeouts(now time.Time) {
	var timedOut []channel.Entry
	d.Table.Range(func(e *channel.Entry) {
		res := e.Reassembler.CheckTimeout(now)
		if res.Outcome == message.OutcomeError {
			timedOut = append(timedOut, *e)
		}
	})
	for _, e := range timedOut {
		d.logDebug("cid %s reassembly timed out", cidLabel(e.CID))
		d.writeError(e.CID, u2f.ErrMsgTimeout)
	}
}

func (d *Dispatcher) handleFrame(frame [u2f.FrameLen]byte) {
	v, err := packet.Decode(&frame)
	if err != nil {
		return
	}
	now := time.Now()

	if v.Init != nil {
		head := append([]byte{}, v.Init.Head...)
		entry := d.Table.Touch(v.Init.CID, now)
		res := entry.Reassembler.HandleInit(v.Init.CID, v.Init.Cmd, v.Init.Bcnt, head, now)
		d.handleResult(v.Init.CID, res)
		return
	}

	tail := append([]byte{}, v.Cont.Tail...)
	entry := d.Table.Touch(v.Cont.CID, now)
	res := entry.Reassembler.HandleCont(v.Cont.CID, v.Cont.Seq, tail, now)
	d.handleResult(v.Cont.CID, res)
}

func (d *Dispatcher) handleResult(cid uint32, res message.Result) {
	switch res.Outcome {
	case message.OutcomeNone:
		return
	case message.OutcomeError:
		d.writeError(cid, res.ErrCode)
	case message.OutcomeDelivered:
		d.route(res.Message)
	}
}

func (d *Dispatcher) route(msg *message.Message) {
	if txn, err := uuid.NewV4(); err == nil {
		d.logDebug("txn %s: cid %s cmd %#x bcnt %d", txn, cidLabel(msg.CID), msg.Cmd, msg.Bcnt())
	}

	switch msg.Cmd {
	case u2f.CmdInit:
		d.handleInit(msg)
	case u2f.CmdPing:
		d.writeMessage(msg.CID, u2f.CmdPing, msg.Payload())
	case u2f.CmdMsg:
		resp := d.Handler.Handle(msg.Payload())
		d.writeMessage(msg.CID, u2f.CmdMsg, resp)
	case u2f.CmdWink:
		d.writeMessage(msg.CID, u2f.CmdWink, nil)
	default:
		d.writeError(msg.CID, u2f.ErrInvalidCmd)
	}
}

// handleInit implements spec.md §4.4's CMD_INIT: must arrive on the
// broadcast channel with an 8-byte nonce; replies on the broadcast channel
// with the nonce echoed back, a freshly allocated cid, the protocol
// version, the device version triple, and a zero capability byte.
func (d *Dispatcher) handleInit(msg *message.Message) {
	if msg.CID != u2f.BroadcastCID {
		d.writeError(msg.CID, u2f.ErrInvalidCmd)
		return
	}
	nonce := msg.Payload()
	if len(nonce) != 8 {
		d.writeError(msg.CID, u2f.ErrInvalidLen)
		return
	}

	newCID, err := d.Table.Allocate(time.Now())
	if err != nil {
		d.logDebug("channel allocation failed: %s", err)
		d.writeError(msg.CID, u2f.ErrChannelBusy)
		return
	}

	maj, min, build := versionBytes()

	resp := make([]byte, 0, 8+4+4)
	resp = append(resp, nonce...)
	var cidBytes [4]byte
	binary.BigEndian.PutUint32(cidBytes[:], newCID)
	resp = append(resp, cidBytes[:]...)
	resp = append(resp, u2f.ProtocolVersion, maj, min, build, 0x00)

	d.writeMessage(u2f.BroadcastCID, u2f.CmdInit, resp)
}

func (d *Dispatcher) writeError(cid uint32, code byte) {
	d.writeMessage(cid, u2f.CmdError, []byte{code})
}

// writeMessage frames payload under cid/cmd and writes every frame with a
// single lock held, so spec.md §5's "frames of one response are contiguous
// on the fd" guarantee holds even if route is ever called concurrently.
func (d *Dispatcher) writeMessage(cid uint32, cmd byte, payload []byte) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	m := message.New(cid, cmd)
	m.Append(payload)
	it := m.Frames()
	for {
		frame, ok := it.Next()
		if !ok {
			return
		}
		if err := d.Device.WriteFrame(frame); err != nil {
			d.logDebug("write frame failed: %s", err)
			return
		}
	}
}

func (d *Dispatcher) logDebug(format string, args ...interface{}) {
	if d.Log != nil {
		d.Log.Debugf(format, args...)
	}
}

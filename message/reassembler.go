package message

import (
	"time"

	"github.com/kryptco/u2fkeyd"
)

// state is the inbound reassembly state for one channel (spec.md §4.2's
// table: Idle / Receiving(n)).
type state int

const (
	stateIdle state = iota
	stateReceiving
)

// Outcome tags what a Reassembler transition produced.
type Outcome int

const (
	// OutcomeNone means the frame was absorbed; the message is still
	// incomplete and no wire reply is due.
	OutcomeNone Outcome = iota
	// OutcomeDelivered means Message is a complete, immutable message
	// ready to route to a command handler.
	OutcomeDelivered
	// OutcomeError means a HID transport error (one of the u2f.Err*
	// byte codes) must be sent back as a CMD_ERROR message.
	OutcomeError
)

// Result is the outcome of feeding one packet.View (or a timeout check)
// into a Reassembler.
type Result struct {
	Outcome Outcome
	Message *Message
	ErrCode byte
}

// Reassembler reconstructs one channel's inbound message from a stream of
// packet.InitView/packet.ContView. It is not safe for concurrent use —
// spec.md §5 requires per-channel assembler state have a single owner at a
// time, which channel.Table's locking provides.
type Reassembler struct {
	st       state
	cid      uint32
	cmd      byte
	bcnt     uint16
	buf      []byte
	nextSeq  byte
	deadline time.Time
}

// NewReassembler returns a Reassembler in the Idle state.
func NewReassembler() *Reassembler {
	return &Reassembler{st: stateIdle}
}

// HandleInit processes an init packet addressed to this channel.
func (r *Reassembler) HandleInit(cid uint32, cmd byte, bcnt uint16, head []byte, now time.Time) Result {
	// Idle -> Init, or Receiving -> Init on the same cid: (re)start.
	// Either way, starting over is correct: a fresh INIT on a channel
	// already Receiving aborts whatever was partially buffered.
	r.st = stateReceiving
	r.cid = cid
	r.cmd = cmd
	r.bcnt = bcnt
	r.nextSeq = 0
	r.deadline = now.Add(u2f.ReassemblyTimeoutMS * time.Millisecond)

	n := len(head)
	if n > int(bcnt) {
		n = int(bcnt)
	}
	r.buf = append([]byte{}, head[:n]...)

	return r.maybeDeliver()
}

// HandleCont processes a continuation packet addressed to this channel.
func (r *Reassembler) HandleCont(cid uint32, seq byte, tail []byte, now time.Time) Result {
	if r.st == stateIdle {
		// Cont while Idle: drop with ERR_INVALID_SEQ.
		return Result{Outcome: OutcomeError, ErrCode: u2f.ErrInvalidSeq}
	}
	if seq != r.nextSeq {
		r.reset()
		return Result{Outcome: OutcomeError, ErrCode: u2f.ErrInvalidSeq}
	}

	remaining := int(r.bcnt) - len(r.buf)
	if remaining < 0 {
		remaining = 0
	}
	n := len(tail)
	if n > remaining {
		// Declared bcnt reached: spec.md §4.2 names this ERR_INVALID_LEN
		// (overflow past bcnt).
		r.reset()
		return Result{Outcome: OutcomeError, ErrCode: u2f.ErrInvalidLen}
	}

	r.buf = append(r.buf, tail[:n]...)
	r.nextSeq++
	r.deadline = now.Add(u2f.ReassemblyTimeoutMS * time.Millisecond)

	return r.maybeDeliver()
}

// CheckTimeout returns OutcomeError(ErrMsgTimeout) if the channel has been
// Receiving for at least spec.md's 500ms deadline with no new frame; it is
// a no-op (OutcomeNone) when Idle or still within the deadline.
func (r *Reassembler) CheckTimeout(now time.Time) Result {
	if r.st != stateReceiving {
		return Result{Outcome: OutcomeNone}
	}
	if now.Before(r.deadline) {
		return Result{Outcome: OutcomeNone}
	}
	r.reset()
	return Result{Outcome: OutcomeError, ErrCode: u2f.ErrMsgTimeout}
}

// Idle reports whether the reassembler has no in-flight message.
func (r *Reassembler) Idle() bool {
	return r.st == stateIdle
}

func (r *Reassembler) maybeDeliver() Result {
	if len(r.buf) < int(r.bcnt) {
		return Result{Outcome: OutcomeNone}
	}
	m := &Message{CID: r.cid, Cmd: r.cmd, payload: r.buf[:r.bcnt]}
	r.reset()
	return Result{Outcome: OutcomeDelivered, Message: m}
}

func (r *Reassembler) reset() {
	r.st = stateIdle
	r.buf = nil
	r.nextSeq = 0
}

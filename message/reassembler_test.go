package message

import (
	"testing"
	"time"

	"github.com/kryptco/u2fkeyd"
)

func TestContWhileIdleIsInvalidSeq(t *testing.T) {
	r := NewReassembler()
	result := r.HandleCont(1, 0, nil, time.Now())
	if result.Outcome != OutcomeError || result.ErrCode != u2f.ErrInvalidSeq {
		t.Fatalf("got %+v, want ErrInvalidSeq", result)
	}
}

func TestOutOfOrderSeqIsInvalidSeq(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	r.HandleInit(1, 0x81, 200, make([]byte, 57), now)
	result := r.HandleCont(1, 2, make([]byte, 10), now) // should be seq 0
	if result.Outcome != OutcomeError || result.ErrCode != u2f.ErrInvalidSeq {
		t.Fatalf("got %+v, want ErrInvalidSeq", result)
	}
	if !r.Idle() {
		t.Fatal("reassembler should return to Idle after an invalid seq")
	}
}

func TestOverflowPastBcntIsInvalidLen(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	r.HandleInit(1, 0x81, 60, make([]byte, 57), now) // 3 bytes remaining
	result := r.HandleCont(1, 0, make([]byte, 10), now)
	if result.Outcome != OutcomeError || result.ErrCode != u2f.ErrInvalidLen {
		t.Fatalf("got %+v, want ErrInvalidLen", result)
	}
}

func TestTimeoutAfterDeadline(t *testing.T) {
	r := NewReassembler()
	start := time.Now()
	r.HandleInit(1, 0x81, 200, make([]byte, 57), start)

	result := r.CheckTimeout(start.Add(499 * time.Millisecond))
	if result.Outcome != OutcomeNone {
		t.Fatalf("should not time out before deadline, got %+v", result)
	}

	result = r.CheckTimeout(start.Add(500 * time.Millisecond))
	if result.Outcome != OutcomeError || result.ErrCode != u2f.ErrMsgTimeout {
		t.Fatalf("got %+v, want ErrMsgTimeout", result)
	}
	if !r.Idle() {
		t.Fatal("reassembler should return to Idle after timeout")
	}
}

func TestInitWhileReceivingRestarts(t *testing.T) {
	r := NewReassembler()
	now := time.Now()
	r.HandleInit(1, 0x81, 200, make([]byte, 57), now)
	result := r.HandleInit(1, 0x81, 8, []byte{0, 1, 2, 3, 4, 5, 6, 7}, now)
	if result.Outcome != OutcomeDelivered {
		t.Fatalf("restarted init with a short message should deliver immediately, got %+v", result)
	}
}

package channel

import (
	"testing"
	"time"

	"github.com/kryptco/u2fkeyd"
)

func TestAllocateNeverReturnsReservedIDs(t *testing.T) {
	tbl, err := NewTable()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	seen := map[uint32]bool{}
	for i := 0; i < 50; i++ {
		cid, err := tbl.Allocate(now)
		if err != nil {
			t.Fatal(err)
		}
		if cid == u2f.InvalidCID || cid == u2f.BroadcastCID {
			t.Fatalf("allocated reserved cid %#x", cid)
		}
		if seen[cid] {
			t.Fatalf("allocated duplicate cid %#x", cid)
		}
		seen[cid] = true
	}
}

func TestLookupAfterAllocate(t *testing.T) {
	tbl, _ := NewTable()
	now := time.Now()
	cid, err := tbl.Allocate(now)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := tbl.Lookup(cid)
	if !ok {
		t.Fatal("expected channel to be found")
	}
	if e.CID != cid {
		t.Fatalf("cid mismatch")
	}
}

func TestReapIdleOnlyEvictsIdleChannelsPastDeadline(t *testing.T) {
	tbl, _ := NewTable()
	start := time.Now()
	cid, _ := tbl.Allocate(start)

	reaped := tbl.ReapIdle(start.Add(500*time.Millisecond), time.Second)
	if len(reaped) != 0 {
		t.Fatalf("should not reap before the idle deadline, got %v", reaped)
	}

	reaped = tbl.ReapIdle(start.Add(2*time.Second), time.Second)
	if len(reaped) != 1 || reaped[0] != cid {
		t.Fatalf("expected %#x reaped, got %v", cid, reaped)
	}
	if _, ok := tbl.Lookup(cid); ok {
		t.Fatal("channel should be gone after reaping")
	}
}

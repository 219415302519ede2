// Package channel allocates and tracks U2FHID channel ids, giving each one
// an owned message.Reassembler and a last-activity timestamp for reaping.
package channel

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kryptco/u2fkeyd"
	"github.com/kryptco/u2fkeyd/message"
)

// maxChannels bounds the LRU of live channels so a host that opens many
// channels and never uses them cannot grow the table unboundedly; eviction
// here mirrors the bounded hostAuthCallbacksBySessionID cache the teacher
// keeps for pending callbacks.
const maxChannels = 64

// Entry is the per-channel state spec.md §3 calls a Channel: its id, its
// reassembler (standing in for the Idle/Receiving/Locked state machine —
// Receiving(partial, deadline) is exactly message.Reassembler's internal
// state), and the last time a frame was seen on it.
type Entry struct {
	CID          uint32
	Reassembler  *message.Reassembler
	LastActivity time.Time
}

// Table allocates fresh channel ids and looks up live channels. It is safe
// for concurrent use; spec.md §5 only requires a single owner per message,
// which the mutex here provides conservatively.
type Table struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewTable returns an empty channel table.
func NewTable() (*Table, error) {
	cache, err := lru.New(maxChannels)
	if err != nil {
		return nil, err
	}
	return &Table{cache: cache}, nil
}

// Allocate mints a fresh 32-bit channel id: never u2f.InvalidCID nor
// u2f.BroadcastCID, and distinct from every currently live id. Collision
// resistance is advisory — random draw with rejection, per spec.md §4.3.
func (t *Table) Allocate(now time.Time) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for attempt := 0; attempt < 32; attempt++ {
		cid, err := randomCID()
		if err != nil {
			return 0, err
		}
		if cid == u2f.InvalidCID || cid == u2f.BroadcastCID {
			continue
		}
		if _, found := t.cache.Get(cid); found {
			continue
		}
		t.cache.Add(cid, &Entry{
			CID:          cid,
			Reassembler:  message.NewReassembler(),
			LastActivity: now,
		})
		return cid, nil
	}
	return 0, u2f.ErrChannelExhausted
}

func randomCID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// Lookup returns the live Entry for cid, if any.
func (t *Table) Lookup(cid uint32) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.cache.Get(cid)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Touch records frame activity on cid, creating the entry if this is the
// first frame the table has seen for it (e.g. a continuation arriving for
// a channel never minted by Allocate is still tracked so timeouts and the
// Idle/Invalid-seq distinction work the same way).
func (t *Table) Touch(cid uint32, now time.Time) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.cache.Get(cid); ok {
		e := v.(*Entry)
		e.LastActivity = now
		return e
	}
	e := &Entry{CID: cid, Reassembler: message.NewReassembler(), LastActivity: now}
	t.cache.Add(cid, e)
	return e
}

// Range calls f once for every live channel. f must not call back into the
// table; Range holds the table lock for its duration.
func (t *Table) Range(f func(e *Entry)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range t.cache.Keys() {
		v, ok := t.cache.Peek(k)
		if !ok {
			continue
		}
		f(v.(*Entry))
	}
}

// ReapIdle evicts channels that have had no in-flight message for at least
// idleFor (spec.md §4.3: "reaped after an idle interval ≥ 1s with no
// in-flight message"). It returns the reaped ids.
func (t *Table) ReapIdle(now time.Time, idleFor time.Duration) []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var reaped []uint32
	for _, k := range t.cache.Keys() {
		v, ok := t.cache.Peek(k)
		if !ok {
			continue
		}
		e := v.(*Entry)
		if !e.Reassembler.Idle() {
			continue
		}
		if now.Sub(e.LastActivity) < idleFor {
			continue
		}
		t.cache.Remove(k)
		reaped = append(reaped, k.(uint32))
	}
	return reaped
}

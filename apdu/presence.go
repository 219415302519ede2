package apdu

// Presence reports whether a human gesture has been observed. spec.md §1
// explicitly allows a stub here ("real user-presence... a stub is
// acceptable; the interface is specified so a real button can be wired
// in") — StubPresence is that stub; a GPIO-backed implementation (e.g. on
// top of warthog618/go-gpiocdev, as doismellburning-samoyed already uses
// for physical buttons) can satisfy the same interface without touching
// Handler.
type Presence interface {
	UserPresent() bool
}

// StubPresence always reports presence, matching spec.md §9's design note
// that the source's hard-coded presence=1 is a stub, not a contract.
type StubPresence struct{}

func (StubPresence) UserPresent() bool { return true }

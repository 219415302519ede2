package u2f

import "fmt"

// Sentinel errors for internal plumbing failures. These are distinct from
// both HID transport errors (sent on the wire as CMD_ERROR, see ErrorCode)
// and APDU status words (sent on the wire as a trailing SW, see apdu.SW) —
// neither of those taxonomies is a Go error.
var (
	ErrInvalidFrame     = fmt.Errorf("frame is not exactly %d bytes", FrameLen)
	ErrChannelExhausted = fmt.Errorf("no channel id could be allocated")
	ErrCounterPersist   = fmt.Errorf("failed to persist authentication counter")
	ErrDeviceClosed     = fmt.Errorf("device file descriptor closed")
)

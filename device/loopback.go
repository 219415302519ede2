package device

import (
	"io"
	"sync"
)

// Loopback is an in-memory Device pair connected by io.Pipe, the same
// harness shape control_server_test.go uses to drive krd's control server
// without a real socket. Host and Authenticator are the two ends of one
// virtual cable: frames written to one arrive as reads from the other.
type Loopback struct {
	readPipe  *io.PipeReader
	writePipe *io.PipeWriter

	closeOnce sync.Once
	closeErr  error
}

// NewLoopbackPair returns two connected Devices: host simulates the USB
// host side (what would be the computer), authenticator simulates this
// side (what u2fhid.Dispatcher reads and writes).
func NewLoopbackPair() (host, authenticator *Loopback) {
	hostToAuth, authFromHost := io.Pipe()
	authToHost, hostFromAuth := io.Pipe()

	host = &Loopback{readPipe: hostFromAuth, writePipe: hostToAuth}
	authenticator = &Loopback{readPipe: authFromHost, writePipe: authToHost}
	return host, authenticator
}

func (l *Loopback) ReadFrame() ([FrameLen]byte, error) {
	var frame [FrameLen]byte
	if _, err := io.ReadFull(l.readPipe, frame[:]); err != nil {
		return frame, err
	}
	return frame, nil
}

func (l *Loopback) WriteFrame(frame [FrameLen]byte) error {
	_, err := l.writePipe.Write(frame[:])
	return err
}

func (l *Loopback) Close() error {
	l.closeOnce.Do(func() {
		if err := l.readPipe.Close(); err != nil {
			l.closeErr = err
		}
		if err := l.writePipe.Close(); err != nil && l.closeErr == nil {
			l.closeErr = err
		}
	})
	return l.closeErr
}

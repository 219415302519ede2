//go:build windows

package device

import (
	"fmt"
	"io"
	"net"

	"github.com/Microsoft/go-winio"
)

// u2fPipeName is the well-known pipe a Windows HID-proxy driver or test
// harness connects to, the same named-pipe shape socket_windows.go uses
// for AGENT_PIPE.
const u2fPipeName = `\\.\pipe\u2fkeyd-authenticator`

// WinPipe binds a Windows named pipe as a Device, standing in for the
// character-device transport on platforms with no /dev/uhid. Listening
// and driver bring-up happen once at startup; ReadFrame/WriteFrame then
// just move bytes over the accepted connection.
type WinPipe struct {
	listener net.Listener
	conn     net.Conn
}

// ListenWinPipe opens u2fPipeName and blocks until a client connects.
func ListenWinPipe() (*WinPipe, error) {
	l, err := winio.ListenPipe(u2fPipeName, nil)
	if err != nil {
		return nil, fmt.Errorf("device: listen %s: %w", u2fPipeName, err)
	}
	conn, err := l.Accept()
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("device: accept on %s: %w", u2fPipeName, err)
	}
	return &WinPipe{listener: l, conn: conn}, nil
}

func (w *WinPipe) ReadFrame() ([FrameLen]byte, error) {
	var frame [FrameLen]byte
	_, err := io.ReadFull(w.conn, frame[:])
	return frame, err
}

func (w *WinPipe) WriteFrame(frame [FrameLen]byte) error {
	_, err := w.conn.Write(frame[:])
	return err
}

func (w *WinPipe) Close() error {
	connErr := w.conn.Close()
	if err := w.listener.Close(); err != nil {
		return err
	}
	return connErr
}

package device

import (
	"bytes"
	"testing"
)

func TestLoopbackRoundTrip(t *testing.T) {
	host, auth := NewLoopbackPair()
	defer host.Close()
	defer auth.Close()

	var sent [FrameLen]byte
	copy(sent[:], []byte("hello authenticator"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- host.WriteFrame(sent)
	}()

	got, err := auth.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:], sent[:]) {
		t.Fatalf("got %x, want %x", got, sent)
	}
}

func TestLoopbackCloseUnblocksReader(t *testing.T) {
	host, auth := NewLoopbackPair()
	defer auth.Close()

	done := make(chan error, 1)
	go func() {
		_, err := auth.ReadFrame()
		done <- err
	}()

	if err := host.Close(); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err == nil {
		t.Fatal("expected ReadFrame to return an error after the peer closed")
	}
}

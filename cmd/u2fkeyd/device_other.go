//go:build !linux && !windows

package main

import "github.com/kryptco/u2fkeyd/device"

// openDevice has no real character-device binding on platforms other than
// linux (uhid) and windows (named pipe) — the driver bring-up itself is
// out of scope. A loopback pair at least lets the binary start so the
// rest of the stack (attestation, counter, logging) can be smoke-tested
// against a host end nothing is driving.
func openDevice() (device.Device, error) {
	_, authenticator := device.NewLoopbackPair()
	return authenticator, nil
}

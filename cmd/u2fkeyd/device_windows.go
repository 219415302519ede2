//go:build windows

package main

import "github.com/kryptco/u2fkeyd/device"

func openDevice() (device.Device, error) {
	return device.ListenWinPipe()
}

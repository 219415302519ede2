//go:build linux

package main

import "github.com/kryptco/u2fkeyd/device"

func openDevice() (device.Device, error) {
	return device.OpenUHID("u2fkeyd")
}

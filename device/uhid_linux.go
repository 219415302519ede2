//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// uhid event types, from linux/uhid.h. Only the subset u2fkeyd needs to
// stand up a virtual HID device and exchange reports is reproduced here.
const (
	uhidCreate2 = 11
	uhidInput2  = 12
	uhidOutput  = 6
	uhidDestroy = 1

	uhidDataMax = 4096
	nameMax     = 128
	physMax     = 64
	uniqMax     = 64
)

// a minimal report descriptor for a generic 64-byte HID vendor device.
// U2FHID does not require the host to parse the descriptor semantically,
// only that it declares a 64-byte input/output report.
var reportDescriptor = []byte{
	0x06, 0xd0, 0xf1, // Usage Page (FIDO alliance)
	0x09, 0x01, // Usage (U2F HID Authenticator Device)
	0xa1, 0x01, // Collection (Application)
	0x09, 0x20, //   Usage (Input Report Data)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x40, //   Report Count (64)
	0x81, 0x02, //   Input (Data,Var,Abs)
	0x09, 0x21, //   Usage (Output Report Data)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x40, //   Report Count (64)
	0x91, 0x02, //   Output (Data,Var,Abs)
	0xc0, // End Collection
}

// UHID binds a virtual /dev/uhid character device as a Device. It is the
// concrete Linux transport u2fhid.Dispatcher is driven over in production;
// the driver bring-up itself (ioctl/report-descriptor plumbing) stays
// isolated here behind the same Device interface Loopback satisfies for
// tests, mirroring how bluetooth_linux.go keeps gatt's kernel-facing calls
// behind BluetoothDriverI.
type UHID struct {
	f *os.File
}

// OpenUHID creates a new virtual HID device named name at /dev/uhid.
func OpenUHID(name string) (*UHID, error) {
	f, err := os.OpenFile("/dev/uhid", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("device: open /dev/uhid: %w", err)
	}
	u := &UHID{f: f}
	if err := u.create(name); err != nil {
		f.Close()
		return nil, err
	}
	return u, nil
}

func (u *UHID) create(name string) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(uhidCreate2))

	var nameBuf [nameMax]byte
	copy(nameBuf[:], name)
	buf.Write(nameBuf[:])

	buf.Write(make([]byte, physMax))
	buf.Write(make([]byte, uniqMax))

	binary.Write(buf, binary.LittleEndian, uint16(len(reportDescriptor)))
	var rdBuf [4096]byte
	copy(rdBuf[:], reportDescriptor)
	buf.Write(rdBuf[:])

	binary.Write(buf, binary.LittleEndian, uint32(0x1209)) // bus vendor placeholder
	binary.Write(buf, binary.LittleEndian, uint32(0x0001))
	binary.Write(buf, binary.LittleEndian, uint32(0x0001))
	binary.Write(buf, binary.LittleEndian, uint32(0))

	_, err := unix.Write(int(u.f.Fd()), buf.Bytes())
	return err
}

func (u *UHID) ReadFrame() ([FrameLen]byte, error) {
	var frame [FrameLen]byte
	var event [4 + uhidDataMax]byte
	for {
		n, err := unix.Read(int(u.f.Fd()), event[:])
		if err != nil {
			return frame, err
		}
		if n < 4 {
			continue
		}
		typ := binary.LittleEndian.Uint32(event[:4])
		if typ != uhidOutput {
			continue
		}
		// uhid_output_req: u8 data[4096]; u16 size; u8 rtype — data
		// starts at offset 4.
		copy(frame[:], event[4:4+FrameLen])
		return frame, nil
	}
}

func (u *UHID) WriteFrame(frame [FrameLen]byte) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(uhidInput2))
	binary.Write(buf, binary.LittleEndian, uint16(FrameLen))
	buf.Write(frame[:])
	buf.Write(make([]byte, uhidDataMax-FrameLen))

	_, err := unix.Write(int(u.f.Fd()), buf.Bytes())
	return err
}

func (u *UHID) Close() error {
	var destroy [4]byte
	binary.LittleEndian.PutUint32(destroy[:], uhidDestroy)
	unix.Write(int(u.f.Fd()), destroy[:])
	return u.f.Close()
}

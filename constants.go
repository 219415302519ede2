package u2f

// Bit-exact wire constants shared by packet, message, channel and u2fhid.
const (
	FrameLen        = 64
	InitHeaderLen   = 7 // cid(4) + cmd(1) + bcnt(2)
	ContHeaderLen   = 5 // cid(4) + seq(1)
	InitPayloadMax  = FrameLen - InitHeaderLen
	ContPayloadMax  = FrameLen - ContHeaderLen
	BroadcastCID    = uint32(0xFFFFFFFF)
	InvalidCID      = uint32(0x00000000)
	CmdFlag         = byte(0x80)
	ProtocolVersion = byte(2)
)

// U2FHID command bytes (top bit of the init packet's cmd byte is always set).
const (
	CmdPing  = byte(0x81)
	CmdMsg   = byte(0x83)
	CmdLock  = byte(0x84)
	CmdInit  = byte(0x86)
	CmdWink  = byte(0x88)
	CmdError = byte(0xBF)
)

// HID transport error codes, carried as the single payload byte of a
// CMD_ERROR message.
const (
	ErrInvalidCmd  = byte(0x01)
	ErrInvalidPar  = byte(0x02)
	ErrInvalidLen  = byte(0x03)
	ErrInvalidSeq  = byte(0x04)
	ErrMsgTimeout  = byte(0x05)
	ErrChannelBusy = byte(0x06)
)

// U2F raw-message (APDU) instruction and sub-type bytes.
const (
	U2FRegister      = byte(0x01)
	U2FAuthenticate  = byte(0x02)
	U2FVersion       = byte(0x03)
	U2FAuthCheck     = byte(0x07)
	U2FAuthEnforce   = byte(0x03)
	U2FAuthNoEnforce = byte(0x08)
)

// APDU status words, the last two bytes of every CMD_MSG response payload.
const (
	SWNoError                 = uint16(0x9000)
	SWConditionsNotSatisfied  = uint16(0x6985)
	SWWrongData               = uint16(0x6A80)
	SWInsNotSupported         = uint16(0x6D00)
	SWClaNotSupported         = uint16(0x6E00)
)

// ReassemblyTimeout is the minimum inactivity period (spec.md §3/§5) after
// which a channel stuck Receiving is aborted with ErrMsgTimeout.
const ReassemblyTimeoutMS = 500

// ChannelIdleTimeoutMS is the minimum period (spec.md §4.3) after which an
// idle channel with no in-flight message may be reaped.
const ChannelIdleTimeoutMS = 1000

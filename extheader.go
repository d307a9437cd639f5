package dlt

import "fmt"

const (
	msinVERB = 1 << 0
	msinMSTP = 0b0000_1110
	msinMTIN = 0b1111_0000
)

// ExtendedHeaderSize is the fixed size of the extended header: MSIN, NOAR,
// APID, CTID.
const ExtendedHeaderSize = 10

// MessageType is the MSTP field of the extended header's MSIN byte.
type MessageType uint8

const (
	MessageTypeLog         MessageType = 0
	MessageTypeAppTrace    MessageType = 1
	MessageTypeNetworkTrace MessageType = 2
	MessageTypeControl     MessageType = 3
	// 4-7 are reserved by the wire format; decoded but otherwise opaque.
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeLog:
		return "log"
	case MessageTypeAppTrace:
		return "app-trace"
	case MessageTypeNetworkTrace:
		return "network-trace"
	case MessageTypeControl:
		return "control"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(m))
	}
}

func (m MessageType) isReserved() bool {
	return m > MessageTypeControl
}

// LogLevel is the MTIN value when MSTP == MessageTypeLog.
type LogLevel uint8

const (
	LogLevelFatal   LogLevel = 1
	LogLevelError   LogLevel = 2
	LogLevelWarn    LogLevel = 3
	LogLevelInfo    LogLevel = 4
	LogLevelDebug   LogLevel = 5
	LogLevelVerbose LogLevel = 6
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelFatal:
		return "fatal"
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelVerbose:
		return "verbose"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(l))
	}
}

// TraceType is the MTIN value when MSTP == MessageTypeAppTrace.
type TraceType uint8

const (
	TraceTypeVariable    TraceType = 1
	TraceTypeFunctionIn  TraceType = 2
	TraceTypeFunctionOut TraceType = 3
	TraceTypeState       TraceType = 4
	TraceTypeVFB         TraceType = 5
)

func (t TraceType) String() string {
	switch t {
	case TraceTypeVariable:
		return "variable"
	case TraceTypeFunctionIn:
		return "function-in"
	case TraceTypeFunctionOut:
		return "function-out"
	case TraceTypeState:
		return "state"
	case TraceTypeVFB:
		return "vfb"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(t))
	}
}

// NetworkType is the MTIN value when MSTP == MessageTypeNetworkTrace.
type NetworkType uint8

const (
	NetworkTypeIPC      NetworkType = 1
	NetworkTypeCAN      NetworkType = 2
	NetworkTypeFlexray  NetworkType = 3
	NetworkTypeMOST     NetworkType = 4
	NetworkTypeEthernet NetworkType = 5
	NetworkTypeSomeIP   NetworkType = 6
)

func (n NetworkType) String() string {
	switch n {
	case NetworkTypeIPC:
		return "ipc"
	case NetworkTypeCAN:
		return "can"
	case NetworkTypeFlexray:
		return "flexray"
	case NetworkTypeMOST:
		return "most"
	case NetworkTypeEthernet:
		return "ethernet"
	case NetworkTypeSomeIP:
		return "someip"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(n))
	}
}

// ControlType is the MTIN value when MSTP == MessageTypeControl.
type ControlType uint8

const (
	ControlTypeRequest  ControlType = 1
	ControlTypeResponse ControlType = 2
)

func (c ControlType) String() string {
	switch c {
	case ControlTypeRequest:
		return "request"
	case ControlTypeResponse:
		return "response"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(c))
	}
}

// ExtendedHeader carries verbosity, message type/subtype, argument count and
// the app/context identifiers. Present iff the standard header's UEH bit is
// set (spec §3/§4.3).
type ExtendedHeader struct {
	MSIN byte
	Verb bool
	MSTP MessageType
	// MTIN is kept as a raw nibble; its symbolic meaning depends on MSTP. Use
	// LogLevel(h.MTIN), TraceType(h.MTIN), NetworkType(h.MTIN) or
	// ControlType(h.MTIN) once MSTP is known.
	MTIN uint8

	NOAR byte
	APID string
	CTID string
}

func decodeExtendedHeader(c *cursor) (ExtendedHeader, error) {
	msin, err := c.u8()
	if err != nil {
		return ExtendedHeader{}, err
	}
	noar, err := c.u8()
	if err != nil {
		return ExtendedHeader{}, err
	}
	apid, _, err := c.fixedID(4)
	if err != nil {
		return ExtendedHeader{}, err
	}
	ctid, _, err := c.fixedID(4)
	if err != nil {
		return ExtendedHeader{}, err
	}

	h := ExtendedHeader{
		MSIN: msin,
		Verb: msin&msinVERB != 0,
		MSTP: MessageType((msin & msinMSTP) >> 1),
		MTIN: (msin & msinMTIN) >> 4,
		NOAR: noar,
		APID: apid,
		CTID: ctid,
	}
	if h.Verb && h.MSTP.isReserved() {
		// spec §4.3: verbose payload with an unknown MSTP can't be rendered
		// sensibly downstream. The raw bits are still recorded on h.
		return h, ErrInvalid{Reason: "verbose message with reserved MSTP"}
	}
	return h, nil
}

func encodeExtendedHeader(h ExtendedHeader, w *encodeBuf) {
	w.u8(h.MSIN)
	w.u8(h.NOAR)
	w.id4(h.APID)
	w.id4(h.CTID)
}

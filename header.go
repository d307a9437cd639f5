package dlt

const (
	htypUEH  = 1 << 0
	htypMSBF = 1 << 1
	htypWEID = 1 << 2
	htypWSID = 1 << 3
	htypWTMS = 1 << 4
	htypVERS = 0b1110_0000
)

// MinStandardHeaderSize is the size of the four mandatory standard header
// bytes: header-type, MCNT, and the big-endian LEN.
const MinStandardHeaderSize = 4

// StandardHeader is the mandatory part of every DLT record plus its
// presence-bit-controlled optional fields (spec §3). Fields named after the
// wire bits (UEH, MSBF, WEID, WSID, WTMS) keep the header's own vocabulary
// instead of inventing new names for the same thing.
type StandardHeader struct {
	HeaderType byte
	UEH        bool
	MSBF       bool
	WEID       bool
	WSID       bool
	WTMS       bool
	Version    uint8

	MCNT byte
	Len  uint16

	ECUID     string // present iff WEID
	SessionID uint32 // present iff WSID
	// Timestamp is in 0.1 millisecond units, present iff WTMS. Always
	// big-endian regardless of MSBF (spec §4.2).
	Timestamp uint32

	// size is the number of bytes this header actually occupied (4 + optional
	// fields), cached at decode time and reported by Size. It stays 0 for a
	// header that was built by hand; Decode and Encode do not read it.
	size int
}

// Size returns the number of bytes this header occupies on the wire,
// including whichever optional fields are present.
func (h StandardHeader) Size() int {
	return h.size
}

func minHeaderBytes(ueh bool, weid, wsid, wtms bool) int {
	n := MinStandardHeaderSize
	if weid {
		n += 4
	}
	if wsid {
		n += 4
	}
	if wtms {
		n += 4
	}
	if ueh {
		n += ExtendedHeaderSize
	}
	return n
}

func decodeStandardHeader(c *cursor) (StandardHeader, error) {
	htyp, err := c.u8()
	if err != nil {
		return StandardHeader{}, err
	}
	mcnt, err := c.u8()
	if err != nil {
		return StandardHeader{}, err
	}
	length, err := c.u16(bigEndian)
	if err != nil {
		return StandardHeader{}, err
	}

	h := StandardHeader{
		HeaderType: htyp,
		UEH:        htyp&htypUEH != 0,
		MSBF:       htyp&htypMSBF != 0,
		WEID:       htyp&htypWEID != 0,
		WSID:       htyp&htypWSID != 0,
		WTMS:       htyp&htypWTMS != 0,
		Version:    (htyp & htypVERS) >> 5,
		MCNT:       mcnt,
		Len:        length,
		size:       MinStandardHeaderSize,
	}

	// Optional fields always follow in ECU, session, timestamp order and are
	// always big-endian, independent of MSBF (spec §4.2).
	if h.WEID {
		ecu, _, err := c.fixedID(4)
		if err != nil {
			return StandardHeader{}, err
		}
		h.ECUID = ecu
		h.size += 4
	}
	if h.WSID {
		sid, err := c.u32(bigEndian)
		if err != nil {
			return StandardHeader{}, err
		}
		h.SessionID = sid
		h.size += 4
	}
	if h.WTMS {
		tmsp, err := c.u32(bigEndian)
		if err != nil {
			return StandardHeader{}, err
		}
		h.Timestamp = tmsp
		h.size += 4
	}
	return h, nil
}

func encodeStandardHeader(h StandardHeader, w *encodeBuf) {
	w.u8(h.HeaderType)
	w.u8(h.MCNT)
	w.u16(bigEndian, h.Len)
	if h.WEID {
		w.id4(h.ECUID)
	}
	if h.WSID {
		w.u32(bigEndian, h.SessionID)
	}
	if h.WTMS {
		w.u32(bigEndian, h.Timestamp)
	}
}

// headerType packs the six presence/version bits into a single byte, the
// inverse of the field-by-field decode above. Encode uses it to write the
// header-type byte from the booleans, so a caller that has mutated a Record's
// booleans directly instead of the raw byte still gets a consistent header.
func headerType(ueh, msbf, weid, wsid, wtms bool, version uint8) byte {
	var b byte
	if ueh {
		b |= htypUEH
	}
	if msbf {
		b |= htypMSBF
	}
	if weid {
		b |= htypWEID
	}
	if wsid {
		b |= htypWSID
	}
	if wtms {
		b |= htypWTMS
	}
	b |= (version << 5) & htypVERS
	return b
}

package dlt

import (
	"encoding/binary"
	"math"
)

// encodeBuf accumulates encoded bytes. It is a thin wrapper over append so
// that header/argument encoders share one growth strategy instead of each
// allocating their own scratch buffer.
type encodeBuf struct {
	buf []byte
}

func newEncodeBuf(sizeHint int) *encodeBuf {
	return &encodeBuf{buf: make([]byte, 0, sizeHint)}
}

func (w *encodeBuf) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *encodeBuf) u8(v byte) { w.buf = append(w.buf, v) }

func (w *encodeBuf) u16(e endian, v uint16) {
	var b [2]byte
	if e == bigEndian {
		binary.BigEndian.PutUint16(b[:], v)
	} else {
		binary.LittleEndian.PutUint16(b[:], v)
	}
	w.buf = append(w.buf, b[:]...)
}

func (w *encodeBuf) u32(e endian, v uint32) {
	var b [4]byte
	if e == bigEndian {
		binary.BigEndian.PutUint32(b[:], v)
	} else {
		binary.LittleEndian.PutUint32(b[:], v)
	}
	w.buf = append(w.buf, b[:]...)
}

func (w *encodeBuf) u64(e endian, v uint64) {
	var b [8]byte
	if e == bigEndian {
		binary.BigEndian.PutUint64(b[:], v)
	} else {
		binary.LittleEndian.PutUint64(b[:], v)
	}
	w.buf = append(w.buf, b[:]...)
}

func (w *encodeBuf) f32(e endian, v float32) { w.u32(e, math.Float32bits(v)) }
func (w *encodeBuf) f64(e endian, v float64) { w.u64(e, math.Float64bits(v)) }

// id4 writes s NUL-padded/truncated to exactly 4 bytes, the inverse of
// cursor.fixedID(4).
func (w *encodeBuf) id4(s string) {
	var b [4]byte
	copy(b[:], s)
	w.buf = append(w.buf, b[:]...)
}

func (w *encodeBuf) lengthPrefixedBytes(e endian, b []byte) {
	w.u16(e, uint16(len(b)))
	w.bytes(b)
}

// Encode re-serializes a Record to bytes bit-identical to whatever it was
// decoded from (spec invariant 4). Encode never fails for a Record produced by
// Decode (spec §7): every field it touches was itself produced by a
// successful decode of the same shape.
func Encode(r Record) []byte {
	w := newEncodeBuf(64 + len(recordPayloadHint(r)))

	if r.Storage != nil {
		encodeStorageHeader(*r.Storage, w)
	}

	e := endianOf(r.Standard.MSBF)

	payload := encodePayload(r, e)

	sh := r.Standard
	// Recomputed from the presence bits rather than trusting sh.Size()'s cached
	// value: that cache is only populated by decodeStandardHeader, so a Record
	// built by hand (tests, a FIBEX-driven verbose synthesis) would otherwise
	// encode a bogus Len of just the payload length.
	sh.Len = uint16(minHeaderBytes(sh.UEH, sh.WEID, sh.WSID, sh.WTMS) + len(payload))
	// The header-type byte is rebuilt from the same booleans that decide which
	// optional fields get written, so the two can never disagree.
	sh.HeaderType = headerType(sh.UEH, sh.MSBF, sh.WEID, sh.WSID, sh.WTMS, sh.Version)
	encodeStandardHeader(sh, w)
	if r.Extended != nil {
		encodeExtendedHeader(*r.Extended, w)
	}
	w.bytes(payload)

	return w.buf
}

func recordPayloadHint(r Record) []byte {
	if r.Verbose != nil {
		return nil
	}
	if r.NonVerbose != nil {
		return r.NonVerbose.Raw
	}
	return nil
}

func encodePayload(r Record, e endian) []byte {
	w := newEncodeBuf(32)
	switch {
	case r.Verbose != nil:
		for _, arg := range r.Verbose.Args {
			encodeArgument(arg, e, w)
		}
	case r.NonVerbose != nil:
		w.u32(e, r.NonVerbose.MessageID)
		w.bytes(r.NonVerbose.Raw)
	}
	return w.buf
}

func encodeArgument(a Argument, e endian, w *encodeBuf) {
	w.u32(e, a.TypeInfo)

	if a.Var != nil {
		w.lengthPrefixedBytes(e, maybeNulTerminated(a.Var.Name, a.Var.NameTrailingNUL))
		w.lengthPrefixedBytes(e, maybeNulTerminated(a.Var.Unit, a.Var.UnitTrailingNUL))
	}
	if a.FixedPt != nil {
		w.f32(e, a.FixedPt.Quantisation)
		width := TYLE(a.TypeInfo & tiTYLE)
		if width == TYLE128 {
			w.bytes(a.FixedPt.OffsetRaw)
		} else {
			writeWidthInt(w, e, width, a.FixedPt.Offset)
		}
	}

	switch v := a.Value.(type) {
	case BoolValue:
		w.u8(v.Raw)
	case SignedValue:
		if v.Width == TYLE128 {
			w.bytes(v.Raw)
		} else {
			writeWidthInt(w, e, v.Width, v.Value)
		}
	case UnsignedValue:
		if v.Width == TYLE128 {
			w.bytes(v.Raw)
		} else {
			writeWidthUint(w, e, v.Width, v.Value)
		}
	case FloatValue:
		switch v.Width {
		case TYLE16, TYLE128:
			w.bytes(v.Raw)
		case TYLE32:
			w.f32(e, v.F32)
		case TYLE64:
			w.f64(e, v.F64)
		}
	case StringValue:
		b := []byte(v.Text)
		if v.TrailingNUL {
			b = append(append([]byte(nil), b...), 0)
		}
		w.lengthPrefixedBytes(e, b)
	case RawValue:
		w.lengthPrefixedBytes(e, v.Bytes)
	case StructValue:
		w.u16(e, uint16(len(v.Fields)))
		for _, f := range v.Fields {
			encodeArgument(f, e, w)
		}
	case TraceInfoValue:
		// no body: see TraceInfoValue doc comment.
	}
}

// maybeNulTerminated reproduces exactly what decodeVariString read: the
// trailing NUL is appended only if the original bytes carried one, so a VARI
// name/unit that arrived without one (or empty) round-trips unchanged instead
// of gaining a byte the source never had.
func maybeNulTerminated(s string, trailingNUL bool) []byte {
	if !trailingNUL {
		return []byte(s)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func writeWidthInt(w *encodeBuf, e endian, width TYLE, v int64) {
	switch width {
	case TYLE8:
		w.u8(byte(v))
	case TYLE16:
		w.u16(e, uint16(v))
	case TYLE32:
		w.u32(e, uint32(v))
	case TYLE64:
		w.u64(e, uint64(v))
	}
}

func writeWidthUint(w *encodeBuf, e endian, width TYLE, v uint64) {
	switch width {
	case TYLE8:
		w.u8(byte(v))
	case TYLE16:
		w.u16(e, uint16(v))
	case TYLE32:
		w.u32(e, uint32(v))
	case TYLE64:
		w.u64(e, v)
	}
}

package dlt

import "fmt"

// type-info bit layout (spec §3, "Type-info word").
const (
	tiTYLE = 0x0000000F
	tiBOOL = 1 << 4
	tiSINT = 1 << 5
	tiUINT = 1 << 6
	tiFLOA = 1 << 7
	tiARAY = 1 << 8
	tiSTRG = 1 << 9
	tiRAWD = 1 << 10
	tiVARI = 1 << 11
	tiFIXP = 1 << 12
	tiTRAI = 1 << 13
	tiSTRU = 1 << 14
	tiSCOD = 0b111 << 15

	tiPrimaryMask = tiBOOL | tiSINT | tiUINT | tiFLOA | tiSTRG | tiRAWD | tiSTRU | tiTRAI
)

// TYLE is the 4 bit length class nibble of a type-info word.
type TYLE uint8

const (
	TYLENone TYLE = 0
	TYLE8    TYLE = 1
	TYLE16   TYLE = 2
	TYLE32   TYLE = 3
	TYLE64   TYLE = 4
	TYLE128  TYLE = 5
)

// Bits returns the scalar width TYLE encodes, or 0 for an unrecognized value.
func (t TYLE) Bits() int {
	switch t {
	case TYLE8:
		return 8
	case TYLE16:
		return 16
	case TYLE32:
		return 32
	case TYLE64:
		return 64
	case TYLE128:
		return 128
	default:
		return 0
	}
}

func (t TYLE) bytes() int { return t.Bits() / 8 }

// StringCoding is the SCOD field: how a STRG/VARI argument's bytes should be
// interpreted. Reserved values are accepted and passed through unmodified
// (spec §3: "others=reserved (accept, pass through)").
type StringCoding uint8

const (
	StringCodingASCII StringCoding = 0
	StringCodingUTF8  StringCoding = 1
)

func (s StringCoding) String() string {
	switch s {
	case StringCodingASCII:
		return "ascii"
	case StringCodingUTF8:
		return "utf8"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(s))
	}
}

// VarInfo is the optional name+unit block that precedes an argument's value
// when the VARI bit is set (spec §4.4). NameTrailingNUL/UnitTrailingNUL record
// whether the original bytes carried a trailing NUL, the same way StringValue
// does for a STRG argument's text, so the serializer reproduces exactly what
// was read instead of unconditionally adding or dropping one.
type VarInfo struct {
	Name            string
	NameTrailingNUL bool
	Unit            string
	UnitTrailingNUL bool
}

// FixedPointInfo is the optional quantisation+offset block that precedes an
// argument's value when the FIXP bit is set (spec §4.4). Offset is stored
// widened to int64; for TYLE128 arguments (wider than int64) OffsetRaw holds
// the exact original bytes instead and Offset is left at 0.
type FixedPointInfo struct {
	Quantisation float32
	Offset       int64
	OffsetRaw    []byte // used only when the value width is 128 bit
}

// ArgKind discriminates the tagged union of Value implementations. Exactly one
// ArgKind is "primary" per type-info word (spec §4.4 rule).
type ArgKind uint8

const (
	KindBool ArgKind = iota
	KindSigned
	KindUnsigned
	KindFloat
	KindString
	KindRaw
	KindStruct
	KindTraceInfo
)

// Value is the tagged union over an argument's decoded body. Each
// implementation carries enough of the original encoding (width, coding,
// trailing NUL, raw opaque bytes for wide/unsupported widths) that Encode can
// reproduce the exact original bytes (spec invariant 4, round-trip).
type Value interface {
	Kind() ArgKind
}

// BoolValue is a BOOL argument (TYLE is 8 bit or left at 0; any other TYLE is
// rejected). Raw preserves
// the original byte: any non-zero value decodes as true, but the serializer
// must write back the exact byte that was read, not a canonicalized 0/1.
type BoolValue struct {
	True bool
	Raw  byte
}

func (BoolValue) Kind() ArgKind { return KindBool }

// SignedValue is a SINT argument. For TYLE64 and below, Value holds the exact
// widened int64; for TYLE128, Raw holds the opaque 16 original bytes and Value
// is left at 0 (spec §4.4: "values >=64 bit stored as arbitrary-precision or
// opaque 16-byte").
type SignedValue struct {
	Width TYLE
	Value int64
	Raw   []byte // populated only for Width == TYLE128
}

func (SignedValue) Kind() ArgKind { return KindSigned }

// UnsignedValue is a UINT argument, mirroring SignedValue.
type UnsignedValue struct {
	Width TYLE
	Value uint64
	Raw   []byte // populated only for Width == TYLE128
}

func (UnsignedValue) Kind() ArgKind { return KindUnsigned }

// FloatValue is a FLOA argument. F32/F64 hold the value for those two widths;
// TYLE16 (f16) and TYLE128 (f128) are stored opaque in Raw (spec §4.4).
type FloatValue struct {
	Width TYLE
	F32   float32
	F64   float64
	Raw   []byte // populated for Width == TYLE16 or TYLE128
}

func (FloatValue) Kind() ArgKind { return KindFloat }

// StringValue is a STRG argument. TrailingNUL records whether the original
// bytes included a trailing NUL so Encode can reproduce it; Text excludes any
// trailing NUL either way.
type StringValue struct {
	Coding      StringCoding
	Text        string
	TrailingNUL bool
}

func (StringValue) Kind() ArgKind { return KindString }

// RawValue is a RAWD argument: opaque length-prefixed bytes. The decoder
// builds it only for RAWD; an argument it cannot decode is an error, not a
// RawValue.
type RawValue struct {
	Bytes []byte
}

func (RawValue) Kind() ArgKind { return KindRaw }

// StructValue is a STRU argument: a nested field-count-prefixed list of
// arguments (spec §4.4).
type StructValue struct {
	Fields []Argument
}

func (StructValue) Kind() ArgKind { return KindStruct }

// TraceInfoValue is a TRAI argument. The wire format leaves trace-info's body
// unspecified and real DLT streams essentially never emit it (spec §9 open
// question); this module decodes it as a zero-length marker carrying only the
// type-info bits, matching "preserve the bits but defer value-level decoding."
type TraceInfoValue struct{}

func (TraceInfoValue) Kind() ArgKind { return KindTraceInfo }

// Argument is one verbose-payload element: the raw type-info word, its
// optional VARI/FIXP preambles, and the decoded Value.
type Argument struct {
	TypeInfo uint32
	Coding   StringCoding
	Var      *VarInfo
	FixedPt  *FixedPointInfo
	Value    Value
}

func primaryKind(ti uint32) (ArgKind, error) {
	masked := ti & tiPrimaryMask
	switch masked {
	case tiBOOL:
		return KindBool, nil
	case tiSINT:
		return KindSigned, nil
	case tiUINT:
		return KindUnsigned, nil
	case tiFLOA:
		return KindFloat, nil
	case tiSTRG:
		return KindString, nil
	case tiRAWD:
		return KindRaw, nil
	case tiSTRU:
		return KindStruct, nil
	case tiTRAI:
		return KindTraceInfo, nil
	default:
		return 0, ErrAmbiguousTypeInfo
	}
}

// decodeArgument reads one (type-info, body) pair in payload endianness e.
func decodeArgument(c *cursor, e endian) (Argument, error) {
	ti, err := c.u32(e)
	if err != nil {
		return Argument{}, err
	}
	if ti&tiARAY != 0 {
		return Argument{}, ErrInvalid{Offset: c.offset(), Reason: "ARAY arguments are not supported"}
	}
	kind, err := primaryKind(ti)
	if err != nil {
		return Argument{}, ErrInvalid{Offset: c.offset(), Reason: err.Error()}
	}
	tyle := TYLE(ti & tiTYLE)
	scod := StringCoding((ti & tiSCOD) >> 15)

	arg := Argument{TypeInfo: ti, Coding: scod}

	if ti&tiVARI != 0 {
		name, nameNUL, err := decodeVariString(c, e)
		if err != nil {
			return Argument{}, err
		}
		unit, unitNUL, err := decodeVariString(c, e)
		if err != nil {
			return Argument{}, err
		}
		arg.Var = &VarInfo{Name: name, NameTrailingNUL: nameNUL, Unit: unit, UnitTrailingNUL: unitNUL}
	}

	if ti&tiFIXP != 0 {
		fp, err := decodeFixedPoint(c, e, tyle, kind == KindSigned)
		if err != nil {
			return Argument{}, err
		}
		arg.FixedPt = &fp
	}

	switch kind {
	case KindBool:
		// Real-world encoders frequently leave TYLE at 0 for BOOL since the
		// body is always exactly one byte either way; only reject a TYLE that
		// explicitly claims a different width.
		if tyle != TYLENone && tyle != TYLE8 {
			return Argument{}, ErrInvalid{Offset: c.offset(), Reason: "BOOL argument with non-8-bit TYLE"}
		}
		b, err := c.u8()
		if err != nil {
			return Argument{}, err
		}
		arg.Value = BoolValue{True: b != 0, Raw: b}
	case KindSigned:
		v, err := decodeSigned(c, e, tyle)
		if err != nil {
			return Argument{}, err
		}
		arg.Value = v
	case KindUnsigned:
		v, err := decodeUnsigned(c, e, tyle)
		if err != nil {
			return Argument{}, err
		}
		arg.Value = v
	case KindFloat:
		v, err := decodeFloat(c, e, tyle)
		if err != nil {
			return Argument{}, err
		}
		arg.Value = v
	case KindString:
		v, err := decodeString(c, e, scod)
		if err != nil {
			return Argument{}, err
		}
		arg.Value = v
	case KindRaw:
		b, err := c.lengthPrefixedBytes(e)
		if err != nil {
			return Argument{}, err
		}
		arg.Value = RawValue{Bytes: b}
	case KindStruct:
		n, err := c.u16(e)
		if err != nil {
			return Argument{}, err
		}
		fields := make([]Argument, 0, n)
		for i := 0; i < int(n); i++ {
			f, err := decodeArgument(c, e)
			if err != nil {
				return Argument{}, err
			}
			fields = append(fields, f)
		}
		arg.Value = StructValue{Fields: fields}
	case KindTraceInfo:
		arg.Value = TraceInfoValue{}
	}

	return arg, nil
}

func decodeVariString(c *cursor, e endian) (s string, trailingNUL bool, err error) {
	b, err := c.lengthPrefixedBytes(e)
	if err != nil {
		return "", false, err
	}
	trailingNUL = len(b) > 0 && b[len(b)-1] == 0
	return trimTrailingNUL(b), trailingNUL, nil
}

func trimTrailingNUL(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

func decodeFixedPoint(c *cursor, e endian, width TYLE, signed bool) (FixedPointInfo, error) {
	quant, err := c.f32(e)
	if err != nil {
		return FixedPointInfo{}, err
	}
	fp := FixedPointInfo{Quantisation: quant}
	if width == TYLE128 {
		raw, err := c.take(16)
		if err != nil {
			return FixedPointInfo{}, err
		}
		fp.OffsetRaw = append([]byte(nil), raw...)
		return fp, nil
	}
	switch width {
	case TYLE8:
		v, err := c.u8()
		if err != nil {
			return FixedPointInfo{}, err
		}
		fp.Offset = int64(v)
	case TYLE16:
		v, err := c.u16(e)
		if err != nil {
			return FixedPointInfo{}, err
		}
		fp.Offset = int64(v)
	case TYLE32:
		v, err := c.u32(e)
		if err != nil {
			return FixedPointInfo{}, err
		}
		fp.Offset = int64(v)
	case TYLE64:
		v, err := c.u64(e)
		if err != nil {
			return FixedPointInfo{}, err
		}
		fp.Offset = int64(v)
	default:
		return FixedPointInfo{}, ErrUnknownTYLE
	}
	_ = signed
	return fp, nil
}

func decodeSigned(c *cursor, e endian, tyle TYLE) (SignedValue, error) {
	switch tyle {
	case TYLE8:
		v, err := c.i8()
		return SignedValue{Width: tyle, Value: int64(v)}, err
	case TYLE16:
		v, err := c.i16(e)
		return SignedValue{Width: tyle, Value: int64(v)}, err
	case TYLE32:
		v, err := c.i32(e)
		return SignedValue{Width: tyle, Value: int64(v)}, err
	case TYLE64:
		v, err := c.i64(e)
		return SignedValue{Width: tyle, Value: v}, err
	case TYLE128:
		raw, err := c.take(16)
		if err != nil {
			return SignedValue{}, err
		}
		return SignedValue{Width: tyle, Raw: append([]byte(nil), raw...)}, nil
	default:
		return SignedValue{}, ErrUnknownTYLE
	}
}

func decodeUnsigned(c *cursor, e endian, tyle TYLE) (UnsignedValue, error) {
	switch tyle {
	case TYLE8:
		v, err := c.u8()
		return UnsignedValue{Width: tyle, Value: uint64(v)}, err
	case TYLE16:
		v, err := c.u16(e)
		return UnsignedValue{Width: tyle, Value: uint64(v)}, err
	case TYLE32:
		v, err := c.u32(e)
		return UnsignedValue{Width: tyle, Value: uint64(v)}, err
	case TYLE64:
		v, err := c.u64(e)
		return UnsignedValue{Width: tyle, Value: v}, err
	case TYLE128:
		raw, err := c.take(16)
		if err != nil {
			return UnsignedValue{}, err
		}
		return UnsignedValue{Width: tyle, Raw: append([]byte(nil), raw...)}, nil
	default:
		return UnsignedValue{}, ErrUnknownTYLE
	}
}

// f16 and f128 are not representable by Go's math.Float32/64; both are stored
// opaque (spec §4.4).
func decodeFloat(c *cursor, e endian, tyle TYLE) (FloatValue, error) {
	switch tyle {
	case TYLE16:
		raw, err := c.take(2)
		if err != nil {
			return FloatValue{}, err
		}
		return FloatValue{Width: tyle, Raw: append([]byte(nil), raw...)}, nil
	case TYLE32:
		v, err := c.f32(e)
		return FloatValue{Width: tyle, F32: v}, err
	case TYLE64:
		v, err := c.f64(e)
		return FloatValue{Width: tyle, F64: v}, err
	case TYLE128:
		raw, err := c.take(16)
		if err != nil {
			return FloatValue{}, err
		}
		return FloatValue{Width: tyle, Raw: append([]byte(nil), raw...)}, nil
	default:
		return FloatValue{}, ErrUnknownTYLE
	}
}

func decodeString(c *cursor, e endian, scod StringCoding) (StringValue, error) {
	b, err := c.lengthPrefixedBytes(e)
	if err != nil {
		return StringValue{}, err
	}
	trailing := len(b) > 0 && b[len(b)-1] == 0
	text := b
	if trailing {
		text = b[:len(b)-1]
	}
	return StringValue{Coding: scod, Text: string(text), TrailingNUL: trailing}, nil
}

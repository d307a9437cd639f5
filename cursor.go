package dlt

import (
	"encoding/binary"
	"math"
)

// endian selects the byte order a cursor read should use. The standard header's
// optional fields are always bigEndian (spec §4.2); payload reads switch on
// MSBF.
type endian uint8

const (
	littleEndian endian = iota
	bigEndian
)

func endianOf(msbf bool) endian {
	if msbf {
		return bigEndian
	}
	return littleEndian
}

// cursor walks a byte slice without copying it. It never allocates on the read
// path; every slice it returns aliases the input buffer. take reports
// ErrIncomplete{Need: n-remaining} rather than panicking when the buffer is
// short, so callers at any layer can propagate it untouched to Decode's caller.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) offset() int {
	return c.pos
}

// take returns the next n bytes and advances the cursor, or ErrIncomplete if
// fewer than n bytes remain.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalid{Offset: c.pos, Reason: "negative take length"}
	}
	if c.remaining() < n {
		return nil, ErrIncomplete{Need: n - c.remaining()}
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) peek(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, ErrIncomplete{Need: n - c.remaining()}
	}
	return c.buf[c.pos : c.pos+n], nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16(e endian) (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	if e == bigEndian {
		return binary.BigEndian.Uint16(b), nil
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32(e endian) (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	if e == bigEndian {
		return binary.BigEndian.Uint32(b), nil
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64(e endian) (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	if e == bigEndian {
		return binary.BigEndian.Uint64(b), nil
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) i8() (int8, error) {
	v, err := c.u8()
	return int8(v), err
}

func (c *cursor) i16(e endian) (int16, error) {
	v, err := c.u16(e)
	return int16(v), err
}

func (c *cursor) i32(e endian) (int32, error) {
	v, err := c.u32(e)
	return int32(v), err
}

func (c *cursor) i64(e endian) (int64, error) {
	v, err := c.u64(e)
	return int64(v), err
}

func (c *cursor) f32(e endian) (float32, error) {
	v, err := c.u32(e)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) f64(e endian) (float64, error) {
	v, err := c.u64(e)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// fixedID reads a NUL-padded ASCII identifier of exactly n bytes (ECU id, app
// id, context id). Non-ASCII bytes are not rejected here: the second result
// reports whether the id was clean. decodeStorageHeader records it as
// StorageHeader.ECUIDClean; the standard and extended header decoders pass the
// text through and drop the flag.
func (c *cursor) fixedID(n int) (string, bool, error) {
	b, err := c.take(n)
	if err != nil {
		return "", false, err
	}
	clean := true
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	for _, ch := range b[:end] {
		if ch == 0 || ch > 0x7f {
			clean = false
			break
		}
	}
	return string(b[:end]), clean, nil
}

// lengthPrefixedBytes reads a u16 length (in e) followed by that many raw
// bytes. Used by RAWD and, with a string flavour on top, STRG/VARI name+unit.
func (c *cursor) lengthPrefixedBytes(e endian) ([]byte, error) {
	n, err := c.u16(e)
	if err != nil {
		return nil, err
	}
	return c.take(int(n))
}

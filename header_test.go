package dlt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardHeader_RoundTripWithAllOptionalFields(t *testing.T) {
	htyp := headerType(true, true, true, true, true, 1)
	buf := []byte{
		htyp, 0x05, 0x00, 0x00, // htyp, mcnt, len (placeholder)
		'E', 'C', 'U', 0x00, // ecu id
		0x00, 0x00, 0x00, 0x2A, // session id (big endian, always)
		0x00, 0x00, 0x01, 0x00, // timestamp (big endian, always)
	}
	h, err := decodeStandardHeader(newCursor(buf))
	require.NoError(t, err)
	assert.True(t, h.UEH)
	assert.True(t, h.MSBF)
	assert.True(t, h.WEID)
	assert.True(t, h.WSID)
	assert.True(t, h.WTMS)
	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, "ECU", h.ECUID)
	assert.Equal(t, uint32(0x2A), h.SessionID)
	assert.Equal(t, uint32(0x100), h.Timestamp)
	assert.Equal(t, 16, h.Size())

	w := newEncodeBuf(16)
	encodeStandardHeader(h, w)
	assert.Equal(t, buf, w.buf)
}

func TestStandardHeader_MinimalSize(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x04}
	h, err := decodeStandardHeader(newCursor(buf))
	require.NoError(t, err)
	assert.Equal(t, MinStandardHeaderSize, h.Size())
	assert.False(t, h.WEID)
	assert.False(t, h.WSID)
	assert.False(t, h.WTMS)
}

func TestExtendedHeader_RoundTrip(t *testing.T) {
	buf := []byte{
		0x01, 0x02, // msin (VERB=1, MSTP=log), noar=2
		'A', 'P', 'P', 0x00,
		'C', 'T', 'X', 0x00,
	}
	h, err := decodeExtendedHeader(newCursor(buf))
	require.NoError(t, err)
	assert.True(t, h.Verb)
	assert.Equal(t, MessageTypeLog, h.MSTP)
	assert.Equal(t, byte(2), h.NOAR)
	assert.Equal(t, "APP", h.APID)
	assert.Equal(t, "CTX", h.CTID)

	w := newEncodeBuf(10)
	encodeExtendedHeader(h, w)
	assert.Equal(t, buf, w.buf)
}

func TestExtendedHeader_VerboseReservedMSTPRejected(t *testing.T) {
	// VERB=1, MSTP bits = 4 (reserved: only 0-3 are defined).
	msin := byte(1) | (4 << 1)
	buf := []byte{msin, 0x00, 'A', 'P', 'P', 0x00, 'C', 'T', 'X', 0x00}
	_, err := decodeExtendedHeader(newCursor(buf))
	require.Error(t, err)
	var inv ErrInvalid
	require.ErrorAs(t, err, &inv)
}

func TestExtendedHeader_NonVerboseReservedMSTPAllowed(t *testing.T) {
	msin := byte(0) | (4 << 1) // VERB=0, MSTP reserved
	buf := []byte{msin, 0x00, 'A', 'P', 'P', 0x00, 'C', 'T', 'X', 0x00}
	h, err := decodeExtendedHeader(newCursor(buf))
	require.NoError(t, err)
	assert.False(t, h.Verb)
	assert.True(t, h.MSTP.isReserved())
}

func TestStorageHeader_RoundTrip(t *testing.T) {
	buf := []byte{
		'D', 'L', 'T', 0x01,
		0x2B, 0x2C, 0xC9, 0x4D,
		0x7A, 0xE8, 0x01, 0x00,
		'E', 'C', 'U', 0x00,
	}
	h, err := decodeStorageHeader(newCursor(buf))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4DC92C2B), h.Seconds)
	assert.Equal(t, uint32(0x0001E87A), h.Microseconds)
	assert.Equal(t, "ECU", h.ECUID)
	assert.True(t, h.ECUIDClean)

	w := newEncodeBuf(16)
	encodeStorageHeader(h, w)
	assert.Equal(t, buf, w.buf)
}

func TestStorageHeader_BadMagic(t *testing.T) {
	buf := []byte{'X', 'X', 'X', 'X', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err := decodeStorageHeader(newCursor(buf))
	assert.ErrorIs(t, err, ErrBadStorageMagic)
}

func TestScanForStorageMagic(t *testing.T) {
	buf := append([]byte{0xAA, 0xBB}, s1Bytes...)
	idx := scanForStorageMagic(buf, 0)
	assert.Equal(t, 2, idx)

	assert.Equal(t, -1, scanForStorageMagic([]byte{0x01, 0x02, 0x03}, 0))
}

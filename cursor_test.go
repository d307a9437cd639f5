package dlt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_TakeIncomplete(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	_, err := c.take(3)
	require.Error(t, err)
	var incomplete ErrIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Need)
}

func TestCursor_U16BothEndians(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	v, err := c.u16(bigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)

	c2 := newCursor([]byte{0x01, 0x02})
	v2, err := c2.u16(littleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v2)
}

func TestCursor_FixedIDStripsTrailingNUL(t *testing.T) {
	c := newCursor([]byte{'L', 'O', 'G', 0x00})
	s, clean, err := c.fixedID(4)
	require.NoError(t, err)
	assert.Equal(t, "LOG", s)
	assert.True(t, clean)
}

func TestCursor_FixedIDFlagsNonASCII(t *testing.T) {
	c := newCursor([]byte{'A', 0xFF, 'C', 'D'})
	s, clean, err := c.fixedID(4)
	require.NoError(t, err)
	assert.Equal(t, "A\xffCD", s)
	assert.False(t, clean)
}

func TestCursor_LengthPrefixedBytes(t *testing.T) {
	c := newCursor([]byte{0x03, 0x00, 'a', 'b', 'c'})
	b, err := c.lengthPrefixedBytes(littleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)
}

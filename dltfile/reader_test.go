package dltfile

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlt-tools/dlt-core"
)

// s1Bytes mirrors the worked storage-header-framed example used throughout
// the core package's own tests: one verbose bool(true) record.
var s1Bytes = []byte{
	0x44, 0x4C, 0x54, 0x01, 0x2B, 0x2C, 0xC9, 0x4D, 0x7A, 0xE8, 0x01, 0x00, 0x45, 0x43, 0x55, 0x00,
	0x21, 0x0A, 0x00, 0x13, 0x41, 0x01, 0x4C, 0x4F, 0x47, 0x00, 0x54, 0x45, 0x53, 0x32, 0x10, 0x00, 0x00, 0x00, 0x6F,
}

func TestReader_SingleRecord(t *testing.T) {
	r, err := NewReader(bytes.NewReader(s1Bytes), dlt.DecodeOptions{})
	require.NoError(t, err)

	rec, err := r.ReadRecord(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec.Verbose)
	b, ok := rec.Verbose.Args[0].Value.(dlt.BoolValue)
	require.True(t, ok)
	assert.True(t, b.True)

	_, err = r.ReadRecord(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_MultipleRecordsBackToBack(t *testing.T) {
	buf := append(append(append([]byte(nil), s1Bytes...), s1Bytes...), s1Bytes...)
	r, err := NewReader(bytes.NewReader(buf), dlt.DecodeOptions{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rec, err := r.ReadRecord(context.Background())
		require.NoError(t, err)
		require.NotNil(t, rec.Verbose)
	}
	_, err = r.ReadRecord(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_TransparentGzip(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(s1Bytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(gz.Bytes()), dlt.DecodeOptions{})
	require.NoError(t, err)

	rec, err := r.ReadRecord(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec.Verbose)
}

func TestReader_TruncatedFinalRecordIsUnexpectedEOF(t *testing.T) {
	truncated := s1Bytes[:len(s1Bytes)-5]
	r, err := NewReader(bytes.NewReader(truncated), dlt.DecodeOptions{})
	require.NoError(t, err)

	_, err = r.ReadRecord(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_ContextCancellation(t *testing.T) {
	r, err := NewReader(bytes.NewReader(s1Bytes), dlt.DecodeOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ReadRecord(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

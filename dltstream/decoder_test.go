package dltstream

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlt-tools/dlt-core"
)

var s1Bytes = []byte{
	0x44, 0x4C, 0x54, 0x01, 0x2B, 0x2C, 0xC9, 0x4D, 0x7A, 0xE8, 0x01, 0x00, 0x45, 0x43, 0x55, 0x00,
	0x21, 0x0A, 0x00, 0x13, 0x41, 0x01, 0x4C, 0x4F, 0x47, 0x00, 0x54, 0x45, 0x53, 0x32, 0x10, 0x00, 0x00, 0x00, 0x6F,
}

func collect(t *testing.T, d *Decoder, wantRecords int) ([]dlt.Record, []error) {
	t.Helper()
	var records []dlt.Record
	var errs []error
	recordsCh, errsCh := d.Records(), d.Errors()
	for recordsCh != nil || errsCh != nil {
		select {
		case rec, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			records = append(records, rec)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for decoder output")
		}
	}
	return records, errs
}

func TestDecoder_DecodesMultipleRecordsFromStream(t *testing.T) {
	buf := append(append(append([]byte(nil), s1Bytes...), s1Bytes...), s1Bytes...)
	d, err := NewDecoder(Options{WithStorageHeader: true})
	require.NoError(t, err)

	d.Start(bytes.NewReader(buf))
	records, errs := collect(t, d, 3)
	assert.Empty(t, errs)
	require.Len(t, records, 3)
	for _, rec := range records {
		require.NotNil(t, rec.Verbose)
	}
}

func TestDecoder_EmitsHickupThenResyncs(t *testing.T) {
	corrupt := append([]byte(nil), s1Bytes...)
	corrupt[18] = 0x00
	corrupt[19] = 0x03
	buf := append(append([]byte(nil), corrupt...), s1Bytes...)

	d, err := NewDecoder(Options{WithStorageHeader: true})
	require.NoError(t, err)
	d.Start(bytes.NewReader(buf))

	records, errs := collect(t, d, 1)
	require.Len(t, records, 1)
	require.Len(t, errs, 1)
	var hickup dlt.ErrParsingHickup
	assert.ErrorAs(t, errs[0], &hickup)
}

func TestDecoder_StopReturnsOnceSourceIsExhausted(t *testing.T) {
	pr, pw := io.Pipe()
	d, err := NewDecoder(Options{WithStorageHeader: true})
	require.NoError(t, err)
	d.Start(pr)

	// Drain (discarding) so run() never blocks trying to emit while nothing
	// is consuming.
	go func() {
		for range d.Records() {
		}
	}()
	go func() {
		for range d.Errors() {
		}
	}()

	require.NoError(t, pw.Close()) // unblocks the pending Read with io.EOF

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestNewDecoder_RejectsNegativeBufferSize(t *testing.T) {
	_, err := NewDecoder(Options{ChannelBufferSize: -1})
	assert.Error(t, err)
}

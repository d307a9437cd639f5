package dlt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHickup(t *testing.T) {
	assert.True(t, IsHickup(ErrParsingHickup{Offset: 1, Reason: "x"}))
	assert.False(t, IsHickup(ErrIncomplete{Need: 1}))
	assert.False(t, IsHickup(ErrUnrecoverable{Cause: "x"}))
}

func TestDecodeAll_SkipsCorruptRecordAndResyncs(t *testing.T) {
	corrupt := append([]byte(nil), s1Bytes...)
	corrupt[18], corrupt[19] = 0x00, 0x03 // same corruption as S3

	buf := append(append([]byte(nil), corrupt...), s1Bytes...)

	var records int
	err := DecodeAll(buf, DecodeOptions{WithStorageHeader: true}, func(consumed int, outcome ParseOutcome) bool {
		records++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, records, "only the trailing clean record should decode")
}

func TestDecodeAll_MultipleCleanRecords(t *testing.T) {
	buf := append(append([]byte(nil), s1Bytes...), s1Bytes...)
	var consumedTotal int
	err := DecodeAll(buf, DecodeOptions{WithStorageHeader: true}, func(consumed int, outcome ParseOutcome) bool {
		consumedTotal += consumed
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumedTotal)
}

func TestDecodeAll_VisitStopsEarly(t *testing.T) {
	buf := append(append([]byte(nil), s1Bytes...), s1Bytes...)
	var records int
	err := DecodeAll(buf, DecodeOptions{WithStorageHeader: true}, func(consumed int, outcome ParseOutcome) bool {
		records++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, records)
}

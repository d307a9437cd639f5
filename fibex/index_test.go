package fibex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlt-tools/dlt-core"
)

const sampleDoc = `<FIBEX>
  <PROJECT><NAME>sample</NAME></PROJECT>
  <NON-VERBOSE-MESSAGES>
    <MESSAGE ECU-ID="ECU" APP-ID="LOG" CTX-ID="TES2" MESSAGE-ID="66" NAME="temperature">
      <PDU NAME="value" TYPE="UINT32"/>
    </MESSAGE>
  </NON-VERBOSE-MESSAGES>
</FIBEX>`

func mustDecode(t *testing.T, raw string) Document {
	t.Helper()
	doc, err := decode(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestBuild_S4ResolvesNonVerbose(t *testing.T) {
	doc := mustDecode(t, sampleDoc)
	idx, warnings := Build(doc)
	assert.Empty(t, warnings)

	args, ok := idx.Resolve("ECU", "LOG", "TES2", 0x42, []byte{0x00, 0x00, 0x00, 0x2A})
	require.True(t, ok)
	require.Len(t, args, 1)
	uv, ok := args[0].Value.(dlt.UnsignedValue)
	require.True(t, ok)
	assert.Equal(t, uint64(0x2A), uv.Value)
}

func TestResolve_MissReturnsFalse(t *testing.T) {
	doc := mustDecode(t, sampleDoc)
	idx, _ := Build(doc)

	_, ok := idx.Resolve("ECU", "LOG", "TES2", 0x99, []byte{0, 0, 0, 1})
	assert.False(t, ok)
}

func TestResolve_FallsBackToECUAgnosticEntry(t *testing.T) {
	doc := mustDecode(t, `<FIBEX>
    <NON-VERBOSE-MESSAGES>
      <MESSAGE APP-ID="LOG" CTX-ID="TES2" MESSAGE-ID="66" NAME="temperature">
        <PDU NAME="value" TYPE="UINT16"/>
      </MESSAGE>
    </NON-VERBOSE-MESSAGES>
  </FIBEX>`)
	idx, _ := Build(doc)

	args, ok := idx.Resolve("ANY-ECU", "LOG", "TES2", 0x42, []byte{0x01, 0x02})
	require.True(t, ok)
	require.Len(t, args, 1)
	uv := args[0].Value.(dlt.UnsignedValue)
	assert.Equal(t, uint64(0x0102), uv.Value)
}

func TestBuild_DuplicateKeyLastWriteWins(t *testing.T) {
	first := mustDecode(t, sampleDoc)
	second := mustDecode(t, `<FIBEX>
    <NON-VERBOSE-MESSAGES>
      <MESSAGE ECU-ID="ECU" APP-ID="LOG" CTX-ID="TES2" MESSAGE-ID="66" NAME="temperature-v2">
        <PDU NAME="value" TYPE="UINT8"/>
      </MESSAGE>
    </NON-VERBOSE-MESSAGES>
  </FIBEX>`)

	idx, warnings := Build(first, second)
	require.Len(t, warnings, 1)
	assert.Equal(t, uint32(66), warnings[0].MessageID)

	args, ok := idx.Resolve("ECU", "LOG", "TES2", 66, []byte{0xFF})
	require.True(t, ok)
	uv := args[0].Value.(dlt.UnsignedValue)
	assert.Equal(t, uint64(0xFF), uv.Value) // UINT8 from the second (winning) document
}

func TestFingerprint_StableAcrossRebuildsOfSameDocs(t *testing.T) {
	doc := mustDecode(t, sampleDoc)
	idx1, _ := Build(doc)
	idx2, _ := Build(doc)
	assert.Equal(t, idx1.Fingerprint(), idx2.Fingerprint())
}

func TestResolve_RawTooShortMisses(t *testing.T) {
	doc := mustDecode(t, sampleDoc)
	idx, _ := Build(doc)

	_, ok := idx.Resolve("ECU", "LOG", "TES2", 0x42, []byte{0x01})
	assert.False(t, ok)
}

package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlt-tools/dlt-core"
)

func record(mstp dlt.MessageType, mtin uint8, app, ctx string) dlt.Record {
	return dlt.Record{
		Extended: &dlt.ExtendedHeader{MSTP: mstp, MTIN: mtin, APID: app, CTID: ctx},
	}
}

func TestAggregator_ObserveCountsByLevelAppAndContext(t *testing.T) {
	a := NewAggregator()
	a.Observe(record(dlt.MessageTypeLog, uint8(dlt.LogLevelInfo), "LOG", "TES2"))
	a.Observe(record(dlt.MessageTypeLog, uint8(dlt.LogLevelInfo), "LOG", "TES2"))
	a.Observe(record(dlt.MessageTypeLog, uint8(dlt.LogLevelError), "LOG", "OTHR"))
	a.Observe(record(dlt.MessageTypeAppTrace, 1, "APP2", "CTX1"))

	snap := a.Snapshot()
	assert.Equal(t, uint64(4), snap.Total)

	levelCounts := map[dlt.LogLevel]uint64{}
	for _, lc := range snap.ByLevel {
		levelCounts[lc.Level] = lc.Count
	}
	assert.Equal(t, uint64(2), levelCounts[dlt.LogLevelInfo])
	assert.Equal(t, uint64(1), levelCounts[dlt.LogLevelError])
	// AppTrace records don't contribute to ByLevel, which is log-level-only.
	assert.Len(t, snap.ByLevel, 2)

	appCounts := map[string]uint64{}
	for _, ac := range snap.ByApp {
		appCounts[ac.AppID] = ac.Count
	}
	assert.Equal(t, uint64(3), appCounts["LOG"])
	assert.Equal(t, uint64(1), appCounts["APP2"])

	ctxCounts := map[string]uint64{}
	for _, cc := range snap.ByContext {
		ctxCounts[cc.AppID+"/"+cc.CtxID] = cc.Count
	}
	assert.Equal(t, uint64(2), ctxCounts["LOG/TES2"])
	assert.Equal(t, uint64(1), ctxCounts["LOG/OTHR"])
	assert.Equal(t, uint64(1), ctxCounts["APP2/CTX1"])
}

func TestAggregator_RecordWithoutExtendedHeaderOnlyCountsTotal(t *testing.T) {
	a := NewAggregator()
	a.Observe(dlt.Record{})
	snap := a.Snapshot()
	assert.Equal(t, uint64(1), snap.Total)
	assert.Empty(t, snap.ByLevel)
	assert.Empty(t, snap.ByApp)
}

func TestAggregator_WithPrometheusUpdatesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	a := NewAggregator().WithPrometheus(metrics)

	a.Observe(record(dlt.MessageTypeLog, uint8(dlt.LogLevelWarn), "LOG", "TES2"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestStringInterner_InternAndLookupBeforeAndAfterFinalize(t *testing.T) {
	in := NewStringInterner()
	id1 := in.Intern("LOG")
	id2 := in.Intern("TES2")
	id1Again := in.Intern("LOG")
	assert.Equal(t, id1, id1Again)

	s, ok := in.Lookup(id1)
	require.True(t, ok)
	assert.Equal(t, "LOG", s)

	in.Finalize()

	s, ok = in.Lookup(id1)
	require.True(t, ok)
	assert.Equal(t, "LOG", s)
	s, ok = in.Lookup(id2)
	require.True(t, ok)
	assert.Equal(t, "TES2", s)
}

func TestStringInterner_LookupUnknownIDMisses(t *testing.T) {
	in := NewStringInterner()
	_, ok := in.Lookup(42)
	assert.False(t, ok)
}

package stats

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/dlt-tools/dlt-core"
)

// contextKey is the hash of an (app-id, context-id) pair, used as the map key
// for per-context counts so the hot path never allocates a composite string.
type contextKey uint64

func hashContext(appID, ctxID string) contextKey {
	h := xxhash.New()
	h.WriteString(appID)
	h.Write([]byte{0})
	h.WriteString(ctxID)
	return contextKey(h.Sum64())
}

// Aggregator accumulates message counts by log level, application id, and
// (application id, context id) pair directly from decoded record headers,
// without holding onto verbose argument payloads. Safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	total     uint64
	byLevel   map[dlt.LogLevel]uint64
	byApp     map[uint64]uint64
	byContext map[contextKey]uint64

	names    *StringInterner
	appNames map[uint64]uint32
	ctxNames map[contextKey]ctxNameIDs

	metrics *Metrics
}

// ctxNameIDs holds the interned ids for one (app-id, context-id) pair's two
// components, kept separate so reconstructing a Snapshot entry never has to
// guess where one name ends and the other begins.
type ctxNameIDs struct {
	app, ctx uint32
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		byLevel:   make(map[dlt.LogLevel]uint64),
		byApp:     make(map[uint64]uint64),
		byContext: make(map[contextKey]uint64),
		names:     NewStringInterner(),
		appNames:  make(map[uint64]uint32),
		ctxNames:  make(map[contextKey]ctxNameIDs),
	}
}

// Observe folds one decoded record into the running counts. A record with no
// extended header (non-verbose, UEH unset) only contributes to Total.
func (a *Aggregator) Observe(rec dlt.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if a.metrics != nil {
		a.metrics.recordsTotal.Inc()
	}

	ext := rec.Extended
	if ext == nil {
		return
	}

	if ext.MSTP == dlt.MessageTypeLog {
		level := dlt.LogLevel(ext.MTIN)
		a.byLevel[level]++
		if a.metrics != nil {
			a.metrics.byLevel.WithLabelValues(level.String()).Inc()
		}
	}

	appHash := xxhash.Sum64String(ext.APID)
	a.byApp[appHash]++
	if _, ok := a.appNames[appHash]; !ok {
		a.appNames[appHash] = a.names.Intern(ext.APID)
	}

	ck := hashContext(ext.APID, ext.CTID)
	a.byContext[ck]++
	if _, ok := a.ctxNames[ck]; !ok {
		a.ctxNames[ck] = ctxNameIDs{app: a.names.Intern(ext.APID), ctx: a.names.Intern(ext.CTID)}
	}
	if a.metrics != nil {
		a.metrics.byApp.WithLabelValues(ext.APID).Inc()
		a.metrics.byContext.WithLabelValues(ext.APID, ext.CTID).Inc()
	}
}

// LevelCount is one log-level bucket in a Snapshot.
type LevelCount struct {
	Level dlt.LogLevel
	Count uint64
}

// AppCount is one application-id bucket in a Snapshot.
type AppCount struct {
	AppID string
	Count uint64
}

// ContextCount is one (app-id, context-id) bucket in a Snapshot.
type ContextCount struct {
	AppID, CtxID string
	Count        uint64
}

// Snapshot is a point-in-time, human-readable view of an Aggregator's counts.
type Snapshot struct {
	Total     uint64
	ByLevel   []LevelCount
	ByApp     []AppCount
	ByContext []ContextCount
}

// Snapshot finalizes the interner (folding in any strings seen since the last
// Snapshot) and renders the current counts.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.names.Finalize()

	snap := Snapshot{Total: a.total}
	for level, count := range a.byLevel {
		snap.ByLevel = append(snap.ByLevel, LevelCount{Level: level, Count: count})
	}
	for hash, count := range a.byApp {
		name, _ := a.names.Lookup(a.appNames[hash])
		snap.ByApp = append(snap.ByApp, AppCount{AppID: name, Count: count})
	}
	for ck, count := range a.byContext {
		ids := a.ctxNames[ck]
		appID, _ := a.names.Lookup(ids.app)
		ctxID, _ := a.names.Lookup(ids.ctx)
		snap.ByContext = append(snap.ByContext, ContextCount{AppID: appID, CtxID: ctxID, Count: count})
	}
	return snap
}

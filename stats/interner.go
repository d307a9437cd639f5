// Package stats aggregates message counts by level/app/context directly off
// decoded record headers, the "statistics" auxiliary pass that never
// materializes full verbose argument lists.
package stats

import (
	"sync"

	"github.com/axiomhq/fsst"
)

// StringInterner assigns a stable uint32 id to each unique string it sees and,
// on Finalize, trains a single FSST symbol table over everything observed so
// far and recompresses every entry against it. Before Finalize, Lookup
// returns the raw bytes directly; the interner's whole point is to let a long
// run accumulate thousands of repeated app-id/context-id/argument strings
// without retaining thousands of separate Go string headers, not to make any
// single Intern call itself cheap.
type StringInterner struct {
	mu    sync.Mutex
	ids   map[string]uint32
	raw   [][]byte
	table *fsst.Table
	codes [][]byte
}

// NewStringInterner returns an empty interner.
func NewStringInterner() *StringInterner {
	return &StringInterner{ids: make(map[string]uint32)}
}

// Intern returns s's id, assigning a new one if s hasn't been seen before.
func (in *StringInterner) Intern(s string) uint32 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := uint32(len(in.raw))
	in.ids[s] = id
	in.raw = append(in.raw, []byte(s))
	in.codes = append(in.codes, nil)
	return id
}

// Finalize trains an FSST table over every string interned so far and
// compresses each one against it. The raw copies are kept alongside the
// compressed ones, so Finalize does not reduce memory use. Safe to call more
// than once; later calls retrain over the full accumulated set so ids
// interned since the last Finalize are folded in too. Aggregator.Snapshot
// calls this once per snapshot.
func (in *StringInterner) Finalize() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.raw) == 0 {
		return
	}
	in.table = fsst.Train(in.raw)
	for i, r := range in.raw {
		in.codes[i] = in.table.EncodeAll(r)
	}
}

// Lookup returns the string for id. Before the first Finalize it returns the
// raw bytes directly; afterward it decodes from the trained table.
func (in *StringInterner) Lookup(id uint32) (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(id) >= len(in.raw) {
		return "", false
	}
	if in.table == nil {
		return string(in.raw[id]), true
	}
	return string(in.table.DecodeAll(in.codes[id])), true
}

// Len reports how many distinct strings have been interned.
func (in *StringInterner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.raw)
}

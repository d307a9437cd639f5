package fibex

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/dlt-tools/dlt-core"
)

// key is the lookup key spec.md §4.8 describes: (ecuID?, app-id, ctx-id,
// message-id). ecuID is optional on the wire (a storage header may be
// absent); entries registered with an empty ecuID match regardless of the
// decoded record's ECU.
type key struct {
	ecuID     string
	apid      string
	ctid      string
	messageID uint32
}

// Template is the resolved shape for one non-verbose message: its PDU field
// list, carried forward from the Message that produced it.
type Template struct {
	Name string
	PDUs []PDU
}

// DuplicateWarning records a last-write-wins collision found while building an
// Index: two Messages shared the same (ecu, app-id, ctx-id, message-id) key.
type DuplicateWarning struct {
	ECUID, AppID, CtxID string
	MessageID           uint32
}

func (w DuplicateWarning) String() string {
	return fmt.Sprintf("fibex: duplicate template for ecu=%q app=%q ctx=%q msg-id=0x%x, last one wins", w.ECUID, w.AppID, w.CtxID, w.MessageID)
}

// Index is an immutable (ecu, app-id, ctx-id, message-id) -> Template lookup
// table built once from one or more Documents. It implements
// dlt.TemplateResolver. Build it once; a caller hot-reloading FIBEX data
// builds a new Index and atomically swaps the pointer (see Watcher) rather
// than mutating one in place — spec.md §9, "FIBEX index mutability".
type Index struct {
	byKey       map[key]Template
	fingerprint uint64
}

// Build assembles an Index from one or more Documents. Later documents win on
// key collision; every collision is reported as a DuplicateWarning so a caller
// can log or reject a misconfigured FIBEX set without Build itself failing.
func Build(docs ...Document) (*Index, []DuplicateWarning) {
	idx := &Index{byKey: make(map[key]Template)}
	var warnings []DuplicateWarning
	for _, doc := range docs {
		for _, m := range doc.Messages {
			k := key{ecuID: m.ECUID, apid: m.AppID, ctid: m.CtxID, messageID: m.MessageID}
			if _, exists := idx.byKey[k]; exists {
				warnings = append(warnings, DuplicateWarning{ECUID: m.ECUID, AppID: m.AppID, CtxID: m.CtxID, MessageID: m.MessageID})
			}
			idx.byKey[k] = Template{Name: m.Name, PDUs: m.PDUs}
		}
	}
	idx.fingerprint = fingerprintOf(idx.byKey)
	return idx, warnings
}

// Fingerprint is a hash over the Index's full key set and field layout. Two
// Indexes built from the same effective documents hash identically; a
// Watcher uses this to skip a reload when a file changed on disk but the
// resolved signal set did not.
func (idx *Index) Fingerprint() uint64 {
	return idx.fingerprint
}

func fingerprintOf(byKey map[key]Template) uint64 {
	type entry struct {
		k key
		t Template
	}
	entries := make([]entry, 0, len(byKey))
	for k, t := range byKey {
		entries = append(entries, entry{k, t})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].k, entries[j].k
		if a.ecuID != b.ecuID {
			return a.ecuID < b.ecuID
		}
		if a.apid != b.apid {
			return a.apid < b.apid
		}
		if a.ctid != b.ctid {
			return a.ctid < b.ctid
		}
		return a.messageID < b.messageID
	})

	h := xxhash.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s|%s|%d|%d;", e.k.ecuID, e.k.apid, e.k.ctid, e.k.messageID, len(e.t.PDUs))
		for _, p := range e.t.PDUs {
			fmt.Fprintf(h, "%s:%s:%d,", p.Name, p.Kind, p.Width)
		}
	}
	return h.Sum64()
}

// Resolve implements dlt.TemplateResolver: it looks up a template by the
// record's (ecu, app-id, ctx-id, message-id), falling back to an
// ecu-agnostic entry, and decodes raw into a verbose-equivalent argument
// list. A miss or a raw payload too short for the template's PDUs returns
// ok == false rather than an error (spec.md §4.10: a resolver miss is not a
// decode failure).
func (idx *Index) Resolve(ecuID, apid, ctid string, messageID uint32, raw []byte) ([]dlt.Argument, bool) {
	tmpl, ok := idx.byKey[key{ecuID: ecuID, apid: apid, ctid: ctid, messageID: messageID}]
	if !ok {
		tmpl, ok = idx.byKey[key{apid: apid, ctid: ctid, messageID: messageID}]
	}
	if !ok {
		return nil, false
	}
	return decodeTemplate(tmpl, raw)
}

// decodeTemplate carves raw into one dlt.Argument per PDU field, in
// declaration order. FIBEX signal layouts are big-endian by convention
// (unlike the verbose payload, whose endianness follows MSBF) since non-verbose
// catalogues are typically authored against a fixed bus byte order.
func decodeTemplate(tmpl Template, raw []byte) ([]dlt.Argument, bool) {
	args := make([]dlt.Argument, 0, len(tmpl.PDUs))
	pos := 0
	for i, p := range tmpl.PDUs {
		remaining := raw[pos:]
		switch p.Kind {
		case PDUUint8:
			if len(remaining) < 1 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.UnsignedValue{Width: dlt.TYLE8, Value: uint64(remaining[0])}})
			pos += 1
		case PDUUint16:
			if len(remaining) < 2 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.UnsignedValue{Width: dlt.TYLE16, Value: uint64(binary.BigEndian.Uint16(remaining))}})
			pos += 2
		case PDUUint32:
			if len(remaining) < 4 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.UnsignedValue{Width: dlt.TYLE32, Value: uint64(binary.BigEndian.Uint32(remaining))}})
			pos += 4
		case PDUUint64:
			if len(remaining) < 8 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.UnsignedValue{Width: dlt.TYLE64, Value: binary.BigEndian.Uint64(remaining)}})
			pos += 8
		case PDUInt8:
			if len(remaining) < 1 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.SignedValue{Width: dlt.TYLE8, Value: int64(int8(remaining[0]))}})
			pos += 1
		case PDUInt16:
			if len(remaining) < 2 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.SignedValue{Width: dlt.TYLE16, Value: int64(int16(binary.BigEndian.Uint16(remaining)))}})
			pos += 2
		case PDUInt32:
			if len(remaining) < 4 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.SignedValue{Width: dlt.TYLE32, Value: int64(int32(binary.BigEndian.Uint32(remaining)))}})
			pos += 4
		case PDUInt64:
			if len(remaining) < 8 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.SignedValue{Width: dlt.TYLE64, Value: int64(binary.BigEndian.Uint64(remaining))}})
			pos += 8
		case PDUFloat32:
			if len(remaining) < 4 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.FloatValue{Width: dlt.TYLE32, F32: math.Float32frombits(binary.BigEndian.Uint32(remaining))}})
			pos += 4
		case PDUFloat64:
			if len(remaining) < 8 {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.FloatValue{Width: dlt.TYLE64, F64: math.Float64frombits(binary.BigEndian.Uint64(remaining))}})
			pos += 8
		case PDUStringFixed:
			if len(remaining) < p.Width {
				return nil, false
			}
			args = append(args, dlt.Argument{Value: dlt.StringValue{Coding: dlt.StringCodingUTF8, Text: string(remaining[:p.Width])}})
			pos += p.Width
		case PDUStringRest:
			args = append(args, dlt.Argument{Value: dlt.StringValue{Coding: dlt.StringCodingUTF8, Text: string(remaining)}})
			pos = len(raw)
		case PDURawRest:
			args = append(args, dlt.Argument{Value: dlt.RawValue{Bytes: append([]byte(nil), remaining...)}})
			pos = len(raw)
		default:
			return nil, false
		}
		_ = i
	}
	return args, true
}

package dlt

// TemplateResolver resolves a non-verbose payload's message id into a verbose
// argument list. fibex.Index implements this interface; the interface lives
// here (not in package fibex) so the core decoder never depends on the FIBEX
// package, matching spec §1's "optional collaborator" framing. A miss
// (ok == false) is not an error (spec §4.10): the caller falls back to raw
// bytes.
type TemplateResolver interface {
	Resolve(ecuID, apid, ctid string, messageID uint32, raw []byte) (args []Argument, ok bool)
}

// VerbosePayload is a record's verbose payload: exactly ExtendedHeader.NOAR
// typed arguments (spec §3).
type VerbosePayload struct {
	Args []Argument
}

// NonVerbosePayload is a record's non-verbose payload: a message id plus
// opaque bytes, optionally resolved against a TemplateResolver into an
// equivalent argument list (spec §3/§4.5 step 6).
type NonVerbosePayload struct {
	MessageID uint32
	Raw       []byte
	// Resolved is non-nil when a TemplateResolver matched MessageID. Its
	// presence is the only difference between "resolved" and "raw passthrough"
	// — Raw is always kept so callers that want the opaque bytes regardless of
	// resolution still have them.
	Resolved []Argument
}

// Record is one fully decoded DLT record (spec §3).
type Record struct {
	Storage  *StorageHeader
	Standard StandardHeader
	Extended *ExtendedHeader

	Verbose    *VerbosePayload
	NonVerbose *NonVerbosePayload
}

// OutcomeKind discriminates ParseOutcome (spec §4.5: "outcome ∈ { Record(r) |
// FilteredOut | Invalid(reason) }").
type OutcomeKind uint8

const (
	// OutcomeRecord is the only kind this decoder ever produces on a nil error
	// return: spec §1 explicitly leaves filtering policy to the caller
	// ("no filtering policy" Non-goal), so OutcomeFilteredOut exists for
	// interface completeness with spec §4.5 but this decoder never emits it.
	OutcomeRecord OutcomeKind = iota
	OutcomeFilteredOut
	OutcomeInvalid
)

// ParseOutcome is the successful result of Decode.
type ParseOutcome struct {
	Kind          OutcomeKind
	Record        Record
	InvalidReason string
}

// DecodeOptions configures a single Decode call.
type DecodeOptions struct {
	// WithStorageHeader instructs Decode to expect and consume a 16 byte
	// storage header before the standard header (spec §4.5 step 1). Set this
	// for on-disk .dlt files, leave it false for wire/transport input.
	WithStorageHeader bool
	// Resolver optionally resolves non-verbose payloads against a FIBEX
	// template index (spec §4.8). Nil means non-verbose records always keep
	// their raw bytes.
	Resolver TemplateResolver
	// Debug gates a one-line fmt.Fprintf diagnostic to stderr for each
	// successfully decoded record; errors and template misses are not logged.
	// This mirrors the teacher's actisense.Config.DebugLogRawMessageBytes idiom
	// rather than pulling in a logging library for a single boolean knob.
	Debug bool
}

// maxRecordLen is the wire format's implicit defensive cap (spec §9 open
// question): StandardHeader.Len is a uint16, so no record can ever legitimately
// claim to be longer than this regardless of how Decode is called.
const maxRecordLen = 0xFFFF

// Decode consumes one record from buf and reports how many bytes it used.
// Decode is a pure function of (buf, opts): it carries no state between calls
// (spec §4.9 — "the decoder is state-free between records").
//
// On success, err is nil, consumed is the exact number of bytes belonging to
// this record, and outcome.Record holds the decoded record. On failure, err is
// one of ErrIncomplete (refill and retry with the same bytes), ErrParsingHickup
// (the caller should advance by ResyncQuantum bytes, see DecodeAll) or
// ErrUnrecoverable (abort the stream); consumed is always 0 in the error case
// since the caller decides how far to skip.
func Decode(buf []byte, opts DecodeOptions) (consumed int, outcome ParseOutcome, err error) {
	c := newCursor(buf)

	var storage *StorageHeader
	if opts.WithStorageHeader {
		sh, serr := decodeStorageHeader(c)
		if serr != nil {
			if serr == ErrBadStorageMagic {
				return 0, ParseOutcome{}, ErrParsingHickup{Offset: 0, Reason: "bad storage header magic"}
			}
			return 0, ParseOutcome{}, serr
		}
		storage = &sh
	}

	standardStart := c.offset()
	sh, err := decodeStandardHeader(c)
	if err != nil {
		return 0, ParseOutcome{}, err
	}

	var extended *ExtendedHeader
	if sh.UEH {
		eh, eerr := decodeExtendedHeader(c)
		if eerr != nil {
			if inv, ok := eerr.(ErrInvalid); ok {
				return 0, ParseOutcome{}, ErrParsingHickup{Offset: inv.Offset, Reason: inv.Reason}
			}
			return 0, ParseOutcome{}, eerr
		}
		extended = &eh
	}

	headerBytesSinceStandard := c.offset() - standardStart
	minBytes := minHeaderBytes(sh.UEH, sh.WEID, sh.WSID, sh.WTMS)
	if int(sh.Len) < minBytes {
		// invariant 1: standard.length >= min-header-bytes(standard, extended)
		return 0, ParseOutcome{}, ErrParsingHickup{Offset: standardStart, Reason: "standard header length shorter than header bytes"}
	}
	payloadLen := int(sh.Len) - headerBytesSinceStandard
	if payloadLen < 0 {
		return 0, ParseOutcome{}, ErrParsingHickup{Offset: standardStart, Reason: "negative payload length"}
	}
	if payloadLen > c.remaining() {
		// spec §9 open question: conservatively Incomplete. maxRecordLen bounds
		// how large `need` can ever legitimately be, since sh.Len is a uint16.
		return 0, ParseOutcome{}, ErrIncomplete{Need: payloadLen - c.remaining()}
	}

	e := endianOf(sh.MSBF)
	payloadStart := c.offset()

	verbose := sh.UEH && extended != nil && extended.Verb && extended.NOAR > 0

	record := Record{Storage: storage, Standard: sh, Extended: extended}

	if verbose {
		args := make([]Argument, 0, extended.NOAR)
		for i := 0; i < int(extended.NOAR); i++ {
			arg, aerr := decodeArgument(c, e)
			if aerr != nil {
				// The payload region is already confirmed to fit in buf, so any
				// failure here is a structural problem with the argument stream
				// itself, not a truncated outer buffer — treat uniformly as a
				// hickup rather than propagating Incomplete from a nested length
				// field.
				off := payloadStart
				reason := aerr.Error()
				if inv, ok := aerr.(ErrInvalid); ok {
					off = inv.Offset
					reason = inv.Reason
				}
				return 0, ParseOutcome{}, ErrParsingHickup{Offset: off, Reason: reason}
			}
			args = append(args, arg)
		}
		if c.offset()-payloadStart != payloadLen {
			return 0, ParseOutcome{}, ErrParsingHickup{Offset: payloadStart, Reason: "verbose arguments did not consume exact payload length"}
		}
		record.Verbose = &VerbosePayload{Args: args}
	} else {
		if payloadLen < 4 {
			return 0, ParseOutcome{}, ErrUnrecoverable{Cause: "non-verbose payload shorter than message id"}
		}
		msgID, merr := c.u32(e)
		if merr != nil {
			return 0, ParseOutcome{}, ErrParsingHickup{Offset: payloadStart, Reason: merr.Error()}
		}
		raw, rerr := c.take(payloadLen - 4)
		if rerr != nil {
			return 0, ParseOutcome{}, ErrParsingHickup{Offset: payloadStart, Reason: rerr.Error()}
		}
		nv := &NonVerbosePayload{MessageID: msgID, Raw: raw}
		if opts.Resolver != nil && extended != nil {
			if resolved, ok := opts.Resolver.Resolve(ecuIDOf(storage), extended.APID, extended.CTID, msgID, raw); ok {
				nv.Resolved = resolved
			}
		}
		record.NonVerbose = nv
	}

	if opts.Debug {
		debugf("dlt: decoded record mcnt=%d len=%d verbose=%v consumed=%d ecuid=%q", sh.MCNT, sh.Len, verbose, c.offset(), debugSafe(ecuIDOf(storage)))
	}

	return c.offset(), ParseOutcome{Kind: OutcomeRecord, Record: record}, nil
}

func ecuIDOf(storage *StorageHeader) string {
	if storage == nil {
		return ""
	}
	return storage.ECUID
}

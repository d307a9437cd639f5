package dlt

import (
	"errors"
	"fmt"
)

// ErrIncomplete indicates that the input buffer does not contain enough bytes to
// decode the next record. Need is the minimum number of additional bytes the
// caller should have available before calling Decode again; 0 means "unknown,
// read more and retry".
type ErrIncomplete struct {
	Need int
}

func (e ErrIncomplete) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("dlt: incomplete record, need at least %d more byte(s)", e.Need)
	}
	return "dlt: incomplete record"
}

// ErrParsingHickup is a recoverable structural violation found at Offset. The
// caller should advance the cursor by ResyncQuantum bytes, or to the next
// storage header magic (see DecodeAll), and retry; it never poisons the decoder state because the decoder carries no state between
// calls.
type ErrParsingHickup struct {
	Offset int
	Reason string
}

func (e ErrParsingHickup) Error() string {
	return fmt.Sprintf("dlt: parsing hickup at offset %d: %s", e.Offset, e.Reason)
}

// ErrUnrecoverable is a structural failure that makes further decoding of this
// stream meaningless at the current position (e.g. a length field that
// overflows the wire-format cap). The caller should abort the stream, not skip
// and retry.
type ErrUnrecoverable struct {
	Cause string
}

func (e ErrUnrecoverable) Error() string {
	return fmt.Sprintf("dlt: unrecoverable: %s", e.Cause)
}

// ErrInvalid is a structural violation detected while decoding a single field
// (type-info, header bits, ...). Most ErrInvalid values surface to the caller
// wrapped as ErrParsingHickup once the record decoder catches them, since a
// single malformed record should not abort a whole stream.
type ErrInvalid struct {
	Offset int
	Reason string
}

func (e ErrInvalid) Error() string {
	return fmt.Sprintf("dlt: invalid at offset %d: %s", e.Offset, e.Reason)
}

var (
	// ErrBadStorageMagic is returned when a storage header was requested but the
	// buffer does not start with the `DLT\x01` magic.
	ErrBadStorageMagic = errors.New("dlt: bad storage header magic")
	// ErrBadVersion describes standard header VERS bits other than 1. The
	// standard header decoder does not check VERS, so Decode never returns it.
	ErrBadVersion = errors.New("dlt: unexpected standard header version")
	// ErrAmbiguousTypeInfo is returned when an argument's type-info word sets
	// zero or more than one of the primary kind bits (BOOL/SINT/UINT/FLOA/STRG/
	// RAWD/STRU/TRAI).
	ErrAmbiguousTypeInfo = errors.New("dlt: type-info has zero or multiple primary kind bits set")
	// ErrPayloadLengthMismatch describes consumed bytes that do not equal the
	// declared payload length. Neither Encode nor Decode returns it: Decode
	// reports verbose arguments that miss the payload length as ErrParsingHickup.
	ErrPayloadLengthMismatch = errors.New("dlt: payload length mismatch")
	// ErrUnknownTYLE is returned when a TYLE nibble does not map to a supported
	// width for the given primary kind.
	ErrUnknownTYLE = errors.New("dlt: unsupported TYLE for argument kind")
)

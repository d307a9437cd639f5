// Package dltjson exports decoded records as structured JSON (spec.md §6's
// "serialization" flag: "enables structured export of records... for
// storage/transmission"). Export is one-directional: a dlt.Record's Value
// field is a tagged-union interface, so this package renders it as an
// explicit Kind-tagged struct rather than attempting a lossless Unmarshal
// back into dlt.Record.
package dltjson

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dlt-tools/dlt-core"
)

// Record is the JSON-friendly projection of a dlt.Record.
type Record struct {
	Storage  *Storage  `json:"storage,omitempty"`
	Standard Standard  `json:"standard"`
	Extended *Extended `json:"extended,omitempty"`

	Verbose    []Argument       `json:"verbose_args,omitempty"`
	NonVerbose *NonVerbose `json:"non_verbose,omitempty"`
}

// Storage is the JSON projection of a dlt.StorageHeader.
type Storage struct {
	Seconds      uint32    `json:"seconds"`
	Microseconds uint32    `json:"microseconds"`
	Time         time.Time `json:"time"`
	ECUID        string    `json:"ecu_id"`
}

// Standard is the JSON projection of a dlt.StandardHeader.
type Standard struct {
	UseExtendedHeader bool   `json:"use_extended_header"`
	BigEndian         bool   `json:"big_endian"`
	Version           uint8  `json:"version"`
	MessageCounter    byte   `json:"message_counter"`
	Length            uint16 `json:"length"`
	ECUID             string `json:"ecu_id,omitempty"`
	SessionID         uint32 `json:"session_id,omitempty"`
	Timestamp         uint32 `json:"timestamp,omitempty"`
}

// Extended is the JSON projection of a dlt.ExtendedHeader.
type Extended struct {
	Verbose       bool   `json:"verbose"`
	MessageType   string `json:"message_type"`
	MessageSubtype byte  `json:"message_subtype"`
	ArgCount      byte   `json:"arg_count"`
	AppID         string `json:"app_id"`
	ContextID     string `json:"context_id"`
}

// NonVerbose is the JSON projection of a dlt.NonVerbosePayload.
type NonVerbose struct {
	MessageID uint32     `json:"message_id"`
	Raw       []byte     `json:"raw"`
	Resolved  []Argument `json:"resolved_args,omitempty"`
}

// Argument is the JSON projection of a dlt.Argument: the decoded Kind plus
// exactly the field(s) meaningful for that kind.
type Argument struct {
	Kind string `json:"kind"`

	Name string `json:"name,omitempty"`
	Unit string `json:"unit,omitempty"`

	Bool    *bool    `json:"bool,omitempty"`
	Int     *int64   `json:"int,omitempty"`
	Uint    *uint64  `json:"uint,omitempty"`
	Float   *float64 `json:"float,omitempty"`
	String  *string  `json:"string,omitempty"`
	Raw     []byte   `json:"raw,omitempty"`
	Fields  []Argument `json:"fields,omitempty"`
}

// FromRecord converts a decoded record into its JSON projection.
func FromRecord(rec dlt.Record) Record {
	out := Record{Standard: fromStandard(rec.Standard)}
	if rec.Storage != nil {
		out.Storage = fromStorage(*rec.Storage)
	}
	if rec.Extended != nil {
		out.Extended = fromExtended(*rec.Extended)
	}
	if rec.Verbose != nil {
		out.Verbose = fromArguments(rec.Verbose.Args)
	}
	if rec.NonVerbose != nil {
		out.NonVerbose = &NonVerbose{
			MessageID: rec.NonVerbose.MessageID,
			Raw:       rec.NonVerbose.Raw,
			Resolved:  fromArguments(rec.NonVerbose.Resolved),
		}
	}
	return out
}

func fromStorage(h dlt.StorageHeader) *Storage {
	return &Storage{
		Seconds:      h.Seconds,
		Microseconds: h.Microseconds,
		Time:         h.Time(),
		ECUID:        h.ECUID,
	}
}

func fromStandard(h dlt.StandardHeader) Standard {
	return Standard{
		UseExtendedHeader: h.UEH,
		BigEndian:         h.MSBF,
		Version:           h.Version,
		MessageCounter:    h.MCNT,
		Length:            h.Len,
		ECUID:             h.ECUID,
		SessionID:         h.SessionID,
		Timestamp:         h.Timestamp,
	}
}

func fromExtended(h dlt.ExtendedHeader) *Extended {
	return &Extended{
		Verbose:        h.Verb,
		MessageType:    h.MSTP.String(),
		MessageSubtype: h.MTIN,
		ArgCount:       h.NOAR,
		AppID:          h.APID,
		ContextID:      h.CTID,
	}
}

func fromArguments(args []dlt.Argument) []Argument {
	if args == nil {
		return nil
	}
	out := make([]Argument, 0, len(args))
	for _, a := range args {
		out = append(out, fromArgument(a))
	}
	return out
}

func fromArgument(a dlt.Argument) Argument {
	out := Argument{}
	if a.Var != nil {
		out.Name = a.Var.Name
		out.Unit = a.Var.Unit
	}

	switch v := a.Value.(type) {
	case dlt.BoolValue:
		out.Kind = "bool"
		b := v.True
		out.Bool = &b
	case dlt.SignedValue:
		out.Kind = "int"
		if v.Raw != nil {
			out.Raw = v.Raw
		} else {
			n := v.Value
			out.Int = &n
		}
	case dlt.UnsignedValue:
		out.Kind = "uint"
		if v.Raw != nil {
			out.Raw = v.Raw
		} else {
			n := v.Value
			out.Uint = &n
		}
	case dlt.FloatValue:
		out.Kind = "float"
		switch {
		case v.Raw != nil:
			out.Raw = v.Raw
		case v.Width == dlt.TYLE64:
			f := v.F64
			out.Float = &f
		default:
			f := float64(v.F32)
			out.Float = &f
		}
	case dlt.StringValue:
		out.Kind = "string"
		s := v.Text
		out.String = &s
	case dlt.RawValue:
		out.Kind = "raw"
		out.Raw = v.Bytes
	case dlt.StructValue:
		out.Kind = "struct"
		out.Fields = fromArguments(v.Fields)
	case dlt.TraceInfoValue:
		out.Kind = "trace_info"
	default:
		out.Kind = fmt.Sprintf("unknown(%T)", v)
	}
	return out
}

// Marshal renders rec as indented JSON, the shape cmd/dltcat uses for its
// per-record `-json` output.
func Marshal(rec dlt.Record) ([]byte, error) {
	return json.MarshalIndent(FromRecord(rec), "", "  ")
}

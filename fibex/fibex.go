// Package fibex loads FIBEX signal descriptions and resolves non-verbose DLT
// payloads against them. An Index implements dlt.TemplateResolver.
package fibex

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
)

// Document is the subset of a FIBEX project this module cares about: the
// non-verbose message catalogue mapping (ecu, app-id, ctx-id, message-id) to
// an ordered list of primitive signal fields. Real FIBEX documents carry a lot
// more (bus topology, frame triggering, ...); none of it is relevant to
// decoding a non-verbose DLT payload, so it is not modeled here.
type Document struct {
	XMLName xml.Name  `xml:"FIBEX"`
	Project string    `xml:"PROJECT>NAME"`
	Messages []Message `xml:"NON-VERBOSE-MESSAGES>MESSAGE"`
}

// Message is one non-verbose signal description: the key a decoded record's
// (ecu, app-id, ctx-id, message-id) tuple is matched against, plus the PDU
// field list describing how to carve up its raw bytes.
type Message struct {
	ECUID     string `xml:"ECU-ID,attr"`
	AppID     string `xml:"APP-ID,attr"`
	CtxID     string `xml:"CTX-ID,attr"`
	MessageID uint32 `xml:"MESSAGE-ID,attr"`
	Name      string `xml:"NAME,attr"`
	PDUs      []PDU  `xml:"PDU"`
}

// PDUKind is the primitive wire type of one PDU field.
type PDUKind string

const (
	PDUUint8   PDUKind = "UINT8"
	PDUUint16  PDUKind = "UINT16"
	PDUUint32  PDUKind = "UINT32"
	PDUUint64  PDUKind = "UINT64"
	PDUInt8    PDUKind = "INT8"
	PDUInt16   PDUKind = "INT16"
	PDUInt32   PDUKind = "INT32"
	PDUInt64   PDUKind = "INT64"
	PDUFloat32 PDUKind = "FLOAT32"
	PDUFloat64 PDUKind = "FLOAT64"
	// PDUStringFixed is a fixed-Width byte string; PDUStringRest consumes
	// whatever bytes remain after the preceding fields (must be the last PDU).
	PDUStringFixed PDUKind = "STRING_FIXED"
	PDUStringRest  PDUKind = "STRING_REST"
	PDURawRest     PDUKind = "RAW_REST"
)

// PDU is one field of a non-verbose message's raw byte layout, decoded in
// declaration order.
type PDU struct {
	Name  string  `xml:"NAME,attr"`
	Kind  PDUKind `xml:"TYPE,attr"`
	Width int     `xml:"WIDTH,attr"` // byte count, only meaningful for PDUStringFixed
}

// Load parses a single FIBEX XML document from fsys at path.
func Load(fsys fs.FS, path string) (Document, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("fibex: opening %s: %w", path, err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("fibex: decoding document: %w", err)
	}
	return doc, nil
}

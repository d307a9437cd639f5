// Package dlt decodes and encodes AUTOSAR DLT (Diagnostic Log and Trace) wire
// records: storage/standard/extended headers, the verbose typed-argument
// payload, and the non-verbose message-id payload. See Decode and Encode.
package dlt

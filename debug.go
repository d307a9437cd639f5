package dlt

import (
	"fmt"
	"os"

	"github.com/dlt-tools/dlt-core/internal/utils"
)

// debugf writes a diagnostic line to stderr. It exists only so call sites read
// the same whether or not DecodeOptions.Debug is set; callers always guard it
// behind `if opts.Debug`, mirroring actisense.Config.DebugLogRawMessageBytes in
// the teacher package rather than adopting a structured logging dependency for
// one boolean knob (see SPEC_FULL.md, "Logging / debug").
func debugf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "# DEBUG "+format+"\n", args...)
}

// debugSafe escapes tab, newline, carriage return, vertical tab and form feed
// in a wire-sourced string (an ECU, application or context id whose bytes
// didn't round-trip cleanly as ASCII) via utils.FormatSpaces, so a debug trace
// never embeds one of them raw and breaks the one diagnostic line per event
// this package prints.
func debugSafe(s string) string {
	return utils.FormatSpaces([]byte(s))
}

// Package utils holds small formatting helpers shared by the core decoder's
// debug trace and any command that prints wire-sourced strings verbatim.
package utils

import "strings"

// FormatSpaces renders s with the whitespace control characters tab, newline,
// carriage return, vertical tab and form feed escaped, so an ECU, application
// or context id that didn't round-trip as clean ASCII can still be printed on
// one line. All other bytes, other control bytes included, pass through as is.
func FormatSpaces(s []byte) string {
	buf := strings.Builder{}
	for _, c := range s {
		switch c {
		case '\t':
			buf.WriteString(`\t`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\v':
			buf.WriteString(`\v`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

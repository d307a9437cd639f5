package dlttest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/dlt-tools/dlt-core"
)

// AssertRecordEqual compares two decoded records structurally, reporting a
// readable diff on mismatch instead of testify's single-line Equal failure.
// dlt.StandardHeader carries an unexported cached size field that cmp would
// otherwise panic on, hence cmpopts.IgnoreUnexported.
func AssertRecordEqual(t *testing.T, expect, actual dlt.Record) {
	t.Helper()
	if diff := cmp.Diff(expect, actual, cmpopts.IgnoreUnexported(dlt.StandardHeader{})); diff != "" {
		t.Errorf("record mismatch (-expect +actual):\n%s", diff)
	}
}

// AssertArgumentsEqual compares two argument lists element by element,
// reporting every index that diverges.
func AssertArgumentsEqual(t *testing.T, expect, actual []dlt.Argument) {
	t.Helper()
	assert.Len(t, actual, len(expect))
	for i := range actual {
		if i >= len(expect) {
			return
		}
		if diff := cmp.Diff(expect[i], actual[i]); diff != "" {
			t.Errorf("argument %d mismatch (-expect +actual):\n%s", i, diff)
		}
	}
}

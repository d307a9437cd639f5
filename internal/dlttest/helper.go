// Package dlttest holds small helpers shared across this module's _test.go
// files: fixture loading, a UTC time constructor, and a mock io.Reader for
// exercising partial-read and error-injection paths.
package dlttest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// UTCTime builds a UTC time.Time from a Unix second count, avoiding test
// flakiness on machines running in a non-UTC timezone.
func UTCTime(sec int64) time.Time {
	return time.Unix(sec, 0).In(time.UTC)
}

// LoadBytes reads a file from the caller package's testdata directory.
func LoadBytes(t *testing.T, name string) []byte {
	return loadBytes(t, filepath.Join("testdata", name), 2)
}

// LoadJSON reads a JSON file from the caller package's testdata directory and
// unmarshals it into target.
func LoadJSON(t *testing.T, name string, target interface{}) {
	b := loadBytes(t, filepath.Join("testdata", name), 2)
	if err := json.Unmarshal(b, target); err != nil {
		t.Fatal(fmt.Errorf("dlttest.LoadJSON: %w", err))
	}
}

func loadBytes(t *testing.T, name string, callDepth int) []byte {
	_, caller, _, _ := runtime.Caller(callDepth)
	path := filepath.Join(filepath.Dir(caller), name)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// ReadResult is one scripted return value for MockReader.Read.
type ReadResult struct {
	Read []byte
	Err  error
}

// MockReader replays a scripted sequence of ReadResult values, one per call
// to Read, regardless of the size of p. It panics (via an out-of-range index
// into Reads) if Read is called more times than scripted, which is usually
// what you want in a test: it means the code under test read more than the
// fixture anticipated.
type MockReader struct {
	Reads []ReadResult
	index int
}

func (m *MockReader) Read(p []byte) (int, error) {
	r := m.Reads[m.index]
	m.index++
	if r.Err != nil {
		return copy(p, r.Read), r.Err
	}
	return copy(p, r.Read), nil
}

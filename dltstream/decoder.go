// Package dltstream wraps the synchronous core decoder in an asynchronous,
// channel-based adapter (spec.md §6, "stream: enables an asynchronous
// adapter around the synchronous core").
package dltstream

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dlt-tools/dlt-core"
)

var validate = validator.New()

// Options configures a Decoder.
type Options struct {
	// WithStorageHeader matches dlt.DecodeOptions.WithStorageHeader.
	WithStorageHeader bool
	// Resolver optionally resolves non-verbose payloads; see dlt.TemplateResolver.
	Resolver dlt.TemplateResolver
	// Debug matches dlt.DecodeOptions.Debug.
	Debug bool
	// ChannelBufferSize sizes the Records/Errors channels. 0 means unbuffered.
	ChannelBufferSize int `validate:"gte=0"`
	// ReadBufferSize sizes each Read off the source reader.
	ReadBufferSize int `validate:"gte=0"`
}

// Decoder runs dlt.Decode over a byte stream on a background goroutine,
// publishing each successfully decoded record and any error encountered
// (including a resynchronizable ErrParsingHickup, which is non-fatal) on its
// own channel. Grounded on revid.Revid's Start/Stop/err-chan lifecycle: a
// single background goroutine, a stop channel for cancellation, and a
// WaitGroup so Stop blocks until that goroutine has actually exited.
type Decoder struct {
	opts dlt.DecodeOptions

	readBufSize int
	records     chan dlt.Record
	errs        chan error
	stop        chan struct{}
	wg          sync.WaitGroup
}

// NewDecoder validates opts and returns an idle Decoder; call Start to begin
// reading.
func NewDecoder(opts Options) (*Decoder, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("dltstream: invalid options: %w", err)
	}
	readBufSize := opts.ReadBufferSize
	if readBufSize == 0 {
		readBufSize = 32 * 1024
	}
	return &Decoder{
		opts: dlt.DecodeOptions{
			WithStorageHeader: opts.WithStorageHeader,
			Resolver:          opts.Resolver,
			Debug:             opts.Debug,
		},
		readBufSize: readBufSize,
		records:     make(chan dlt.Record, opts.ChannelBufferSize),
		errs:        make(chan error, opts.ChannelBufferSize),
		stop:        make(chan struct{}),
	}, nil
}

// Records returns the channel of successfully decoded records. It closes once
// the source reader is exhausted, hits an unrecoverable error, or Stop is
// called.
func (d *Decoder) Records() <-chan dlt.Record { return d.records }

// Errors returns the channel of errors encountered while decoding, including
// non-fatal ErrParsingHickup values a caller may just want to log. It closes
// at the same time as Records.
func (d *Decoder) Errors() <-chan error { return d.errs }

// Start begins reading and decoding from r on a background goroutine.
func (d *Decoder) Start(r io.Reader) {
	d.wg.Add(1)
	go d.run(r)
}

// Stop signals the background goroutine to exit and waits for it to do so.
// Safe to call even if the goroutine already exited on its own (EOF or an
// unrecoverable error).
func (d *Decoder) Stop() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Decoder) run(r io.Reader) {
	defer d.wg.Done()
	defer close(d.records)
	defer close(d.errs)

	var buf []byte
	tmp := make([]byte, d.readBufSize)

	emitRecord := func(rec dlt.Record) bool {
		select {
		case d.records <- rec:
			return true
		case <-d.stop:
			return false
		}
	}
	emitErr := func(err error) bool {
		select {
		case d.errs <- err:
			return true
		case <-d.stop:
			return false
		}
	}

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		n, rerr := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if !d.drain(&buf, emitRecord, emitErr) {
				return
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				emitErr(rerr)
			}
			return
		}
	}
}

// drain decodes as many complete records as buf currently holds, advancing it
// in place, and handles resync on a hickup the same way dlt.DecodeAll does
// for a fully-buffered input. It returns false if the caller should stop
// (Stop was called mid-emit).
func (d *Decoder) drain(buf *[]byte, emitRecord func(dlt.Record) bool, emitErr func(error) bool) bool {
	for {
		consumed, outcome, err := dlt.Decode(*buf, d.opts)
		if err == nil {
			*buf = (*buf)[consumed:]
			if !emitRecord(outcome.Record) {
				return false
			}
			continue
		}

		var incomplete dlt.ErrIncomplete
		if errors.As(err, &incomplete) {
			// Not enough bytes yet; wait for the next Read.
			return true
		}

		if dlt.IsHickup(err) {
			if !emitErr(err) {
				return false
			}
			if d.opts.WithStorageHeader {
				next := dlt.ScanToNextStorageHeader(*buf, 1)
				if next < 0 {
					// No magic anywhere in what's buffered: none of it is
					// salvageable. Keep only the last few bytes in case the
					// magic straddles this Read boundary, so the next Read
					// doesn't re-scan (and re-report) the same dead bytes.
					const magicTail = 3
					if len(*buf) > magicTail {
						*buf = (*buf)[len(*buf)-magicTail:]
					}
					return true
				}
				*buf = (*buf)[next:]
				continue
			}
			if len(*buf) > dlt.ResyncQuantum {
				*buf = (*buf)[dlt.ResyncQuantum:]
			} else {
				*buf = (*buf)[:0]
				return true
			}
			continue
		}

		// ErrUnrecoverable.
		emitErr(err)
		return false
	}
}

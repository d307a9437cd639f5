// Command dltcat decodes a DLT capture file or a live serial stream and
// prints each record, optionally resolving non-verbose payloads against a
// FIBEX signal catalogue. It always aggregates statistics and prints a summary
// once decoding ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/tarm/serial"

	"github.com/dlt-tools/dlt-core"
	"github.com/dlt-tools/dlt-core/dltfile"
	"github.com/dlt-tools/dlt-core/dltjson"
	"github.com/dlt-tools/dlt-core/dltstream"
	"github.com/dlt-tools/dlt-core/fibex"
	"github.com/dlt-tools/dlt-core/stats"
)

func main() {
	filePath := flag.String("file", "", "path to a .dlt or .dlt.gz storage-header-framed capture file")
	serialDevice := flag.String("serial", "", "path to a serial device carrying a live, headerless DLT stream")
	baudRate := flag.Int("baud", 115200, "serial device baud rate")
	fibexDir := flag.String("fibex", "", "directory of FIBEX *.xml documents used to resolve non-verbose payloads")
	printJSON := flag.Bool("json", true, "print each record as JSON (otherwise a one-line summary)")
	statsOnly := flag.Bool("stats-only", false, "suppress per-record output, print only the final statistics summary")
	debug := flag.Bool("debug", false, "enable verbose decode diagnostics")
	flag.Parse()

	if *filePath == "" && *serialDevice == "" {
		log.Fatal("# either -file or -serial must be given\n")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var resolver dlt.TemplateResolver
	if *fibexDir != "" {
		idx, warnings, err := fibex.LoadDir(*fibexDir)
		if err != nil {
			log.Fatalf("# loading FIBEX directory: %v\n", err)
		}
		for _, w := range warnings {
			fmt.Println("#", w.String())
		}
		resolver = idx
		fmt.Printf("# loaded FIBEX resolver from %s\n", *fibexDir)
	}

	agg := stats.NewAggregator()

	if *filePath != "" {
		runFile(*filePath, resolver, *debug, *printJSON, *statsOnly, agg)
	} else {
		runSerial(ctx, *serialDevice, *baudRate, resolver, *debug, *printJSON, *statsOnly, agg)
	}

	printSummary(agg)
}

func runFile(path string, resolver dlt.TemplateResolver, debug, printJSON, statsOnly bool, agg *stats.Aggregator) {
	r, err := dltfile.Open(path, dlt.DecodeOptions{Resolver: resolver, Debug: debug})
	if err != nil {
		log.Fatalf("# opening %s: %v\n", path, err)
	}
	defer r.Close()

	ctx := context.Background()
	errorCount := 0
	for {
		rec, err := r.ReadRecord(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			errorCount++
			fmt.Printf("# error reading record: %v\n", err)
			if errorCount > 20 {
				log.Fatal("# too many consecutive read errors, aborting\n")
			}
			continue
		}
		errorCount = 0
		agg.Observe(rec)
		emit(rec, printJSON, statsOnly)
	}
}

func runSerial(ctx context.Context, device string, baud int, resolver dlt.TemplateResolver, debug, printJSON, statsOnly bool, agg *stats.Aggregator) {
	port, err := serial.OpenPort(&serial.Config{
		Name: device,
		Baud: baud,
		// ReadTimeout bounds how long a blocking Read can take so the
		// background decoder goroutine keeps checking for cancellation.
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("# opening serial device %s: %v\n", device, err)
	}
	defer port.Close()

	dec, err := dltstream.NewDecoder(dltstream.Options{Resolver: resolver, Debug: debug})
	if err != nil {
		log.Fatalf("# configuring stream decoder: %v\n", err)
	}
	fmt.Printf("# starting to read device: %v\n", device)
	dec.Start(port)
	defer dec.Stop()

	records, errs := dec.Records(), dec.Errors()
	for records != nil || errs != nil {
		select {
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			agg.Observe(rec)
			emit(rec, printJSON, statsOnly)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Printf("# decode error: %v\n", err)
		case <-ctx.Done():
			return
		}
	}
}

func emit(rec dlt.Record, printJSON, statsOnly bool) {
	if statsOnly {
		return
	}
	if printJSON {
		b, err := dltjson.Marshal(rec)
		if err != nil {
			fmt.Printf("# error marshaling record: %v\n", err)
			return
		}
		fmt.Println(string(b))
		return
	}

	summary := "non-verbose"
	if rec.Verbose != nil {
		summary = fmt.Sprintf("verbose args=%d", len(rec.Verbose.Args))
	}
	var app, ctxID string
	if rec.Extended != nil {
		app, ctxID = rec.Extended.APID, rec.Extended.CTID
	}
	fmt.Printf("mcnt=%d app=%s ctx=%s %s\n", rec.Standard.MCNT, app, ctxID, summary)
}

func printSummary(agg *stats.Aggregator) {
	snap := agg.Snapshot()
	fmt.Printf("# total records: %d\n", snap.Total)
	for _, lc := range snap.ByLevel {
		fmt.Printf("# level %s: %d\n", lc.Level, lc.Count)
	}
	for _, ac := range snap.ByApp {
		fmt.Printf("# app %s: %d\n", ac.AppID, ac.Count)
	}
}

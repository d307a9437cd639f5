package fibex

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LoadOptions configures LoadWithOptions and Watcher.
type LoadOptions struct {
	// Dir is the directory of *.xml FIBEX documents to load.
	Dir string `validate:"required,dir"`
}

// LoadWithOptions validates opts and then behaves like LoadDir(opts.Dir).
func LoadWithOptions(opts LoadOptions) (*Index, []DuplicateWarning, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, nil, fmt.Errorf("fibex: invalid load options: %w", err)
	}
	return LoadDir(opts.Dir)
}

// LoadDir parses every *.xml file directly under dir and builds a single
// Index from them. Collisions across files are reported the same way as
// within one Document (last file wins, by os.ReadDir's lexical order).
func LoadDir(dir string) (*Index, []DuplicateWarning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("fibex: reading %s: %w", dir, err)
	}
	fsys := os.DirFS(dir)
	var docs []Document
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		doc, err := Load(fsys, e.Name())
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	idx, warnings := Build(docs...)
	return idx, warnings, nil
}

// Watcher keeps an *Index current with a directory of FIBEX files. On any
// Create/Write/Remove/Rename event it rebuilds the Index and, only when the
// rebuilt Fingerprint differs from the active one, atomically swaps the
// pointer, so concurrent readers
// never observe a partially rebuilt Index — spec.md §9's "no locks are
// needed; a caller hot-reloading FIBEX builds a new index and atomically
// swaps a reference", generalized to do that swap automatically.
type Watcher struct {
	dir     string
	current atomic.Pointer[Index]
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher builds the initial Index from dir and starts watching it for
// changes. Call Close to stop watching.
func NewWatcher(dir string) (*Watcher, error) {
	idx, warnings, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Print(w.String())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fibex: starting watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("fibex: watching %s: %w", dir, err)
	}

	w := &Watcher{dir: dir, fsw: fsw, done: make(chan struct{})}
	w.current.Store(idx)

	go w.run()
	return w, nil
}

// Index returns the currently active Index. Safe to call concurrently with
// reloads.
func (w *Watcher) Index() *Index {
	return w.current.Load()
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			idx, warnings, err := LoadDir(w.dir)
			if err != nil {
				log.Printf("fibex: reload of %s failed, keeping previous index: %v", w.dir, err)
				continue
			}
			for _, warn := range warnings {
				log.Print(warn.String())
			}
			if idx.Fingerprint() == w.current.Load().Fingerprint() {
				continue
			}
			w.current.Store(idx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("fibex: watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// watch.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

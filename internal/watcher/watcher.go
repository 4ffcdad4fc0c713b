package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type EventKind int

const (
	EventAdded EventKind = iota
	EventChanged
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event reports one request file appearing, changing, or disappearing under
// the watched directory. Name is the bare request name without extension.
type Event struct {
	Name string
	Kind EventKind
}

type Options struct {
	Interval time.Duration
	Buffer   int
}

type fingerprint struct {
	mod  time.Time
	size int64
	hash string
}

// Watcher polls a directory of request files and diffs fingerprints between
// scans. Polling keeps the dependency surface flat and behaves identically
// on every platform; the directory is small, so a hash per changed file is
// cheap.
type Watcher struct {
	dir      string
	interval time.Duration

	mu      sync.RWMutex
	known   map[string]fingerprint
	out     chan Event
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

const (
	defaultInterval = time.Second
	defaultBuffer   = 16
	watchExt        = ".hurl"
)

func New(dir string, opts Options) *Watcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	return &Watcher{
		dir:      filepath.Clean(dir),
		interval: interval,
		known:    make(map[string]fingerprint),
		out:      make(chan Event, buf),
	}
}

func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Start begins polling. The first scan primes the fingerprint table without
// emitting events, so pre-existing files do not appear as additions.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started || w.closed {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.stop = make(chan struct{})
	w.wg.Add(1)
	w.mu.Unlock()

	w.prime()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Scan()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.started && w.stop != nil {
		close(w.stop)
	}
	w.mu.Unlock()
	if w.started {
		w.wg.Wait()
	}
	close(w.out)
}

func (w *Watcher) prime() {
	current := w.collect()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.known = current
}

// Scan diffs the directory against the last snapshot and emits one event per
// difference. Safe to call manually, e.g. right after a write, to surface
// the change without waiting for the ticker.
func (w *Watcher) Scan() {
	if w.isClosed() {
		return
	}

	current := w.collect()

	w.mu.Lock()
	previous := w.known
	w.known = current
	w.mu.Unlock()

	for name, fp := range current {
		prev, existed := previous[name]
		switch {
		case !existed:
			w.emit(Event{Name: name, Kind: EventAdded})
		case fp.hash != prev.hash:
			w.emit(Event{Name: name, Kind: EventChanged})
		}
	}
	for name := range previous {
		if _, ok := current[name]; !ok {
			w.emit(Event{Name: name, Kind: EventRemoved})
		}
	}
}

func (w *Watcher) collect() map[string]fingerprint {
	result := make(map[string]fingerprint)

	dirEntries, err := os.ReadDir(w.dir)
	if err != nil {
		return result
	}

	w.mu.RLock()
	previous := w.known
	w.mu.RUnlock()

	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), watchExt) {
			continue
		}

		key := strings.TrimSuffix(name, filepath.Ext(name))
		info, err := entry.Info()
		if err != nil {
			continue
		}

		// unchanged metadata keeps the old hash and skips the read
		if prev, ok := previous[key]; ok &&
			info.ModTime().Equal(prev.mod) && info.Size() == prev.size {
			result[key] = prev
			continue
		}

		data, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil {
			continue
		}
		result[key] = fingerprint{
			mod:  info.ModTime(),
			size: info.Size(),
			hash: hashBytes(data),
		}
	}
	return result
}

func (w *Watcher) emit(evt Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.out <- evt:
	default:
	}
}

func (w *Watcher) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

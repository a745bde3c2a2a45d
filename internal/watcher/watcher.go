// Package watcher reports files whose content changed, once they have been
// quiet for an interval. The input method uses it to pick up user phrases
// another process wrote to the phrase store.
package watcher

import (
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports a file whose content differs from when it was last
// reported, or from when watching started.
type Event struct {
	Path      string
	Hash      [32]byte
	Size      int64
	Timestamp time.Time
}

// Watcher monitors a set of files. Files need not exist when watching
// starts; their directories must.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	files     map[string]bool
	quiet     time.Duration

	// path -> time of the last change not yet reported
	pending map[string]time.Time
	// path -> content hash last reported
	hashes  map[string][32]byte
	stateMu sync.Mutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
	now  func() time.Time
}

// New creates a watcher for paths. A file is reported once it has not
// changed for quiet.
func New(paths []string, quiet time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		files:     make(map[string]bool, len(paths)),
		quiet:     quiet,
		pending:   make(map[string]time.Time),
		hashes:    make(map[string][32]byte),
		events:    make(chan Event, 16),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		if !w.files[abs] {
			w.files[abs] = true
			w.paths = append(w.paths, abs)
		}
	}
	return w, nil
}

// Events returns the channel of changed files. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start records the current content of every file and begins watching.
func (w *Watcher) Start() error {
	dirs := make(map[string]bool)
	for _, path := range w.paths {
		dir := filepath.Dir(path)
		if !dirs[dir] {
			if err := w.fsWatcher.Add(dir); err != nil {
				return err
			}
			dirs[dir] = true
		}
		if hash, _, err := HashFile(path); err == nil {
			w.hashes[path] = hash
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if !w.files[path] {
				continue
			}

			w.stateMu.Lock()
			w.pending[path] = w.now()
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := min(max(w.quiet/4, 10*time.Millisecond), time.Second)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.checkStableFiles(w.now())
		}
	}
}

type stableFile struct {
	path    string
	lastMod time.Time
}

// checkStableFiles reports the pending files that have been quiet long
// enough and whose content changed. Files are hashed without the lock held.
func (w *Watcher) checkStableFiles(now time.Time) {
	threshold := now.Add(-w.quiet)

	var stable []stableFile
	w.stateMu.Lock()
	for path, lastMod := range w.pending {
		if !lastMod.After(threshold) {
			stable = append(stable, stableFile{path: path, lastMod: lastMod})
		}
	}
	w.stateMu.Unlock()

	for _, sf := range stable {
		hash, size, err := HashFile(sf.path)

		w.stateMu.Lock()
		if w.pending[sf.path] != sf.lastMod {
			// Changed again while hashing; wait for it to settle.
			w.stateMu.Unlock()
			continue
		}
		if err != nil {
			delete(w.pending, sf.path)
			w.stateMu.Unlock()
			if !os.IsNotExist(err) {
				w.report(err)
			}
			continue
		}
		if previous, ok := w.hashes[sf.path]; ok && previous == hash {
			delete(w.pending, sf.path)
			w.stateMu.Unlock()
			continue
		}

		event := Event{Path: sf.path, Hash: hash, Size: size, Timestamp: now}
		select {
		case w.events <- event:
			delete(w.pending, sf.path)
			w.hashes[sf.path] = hash
		default:
			// Channel full; retried on the next tick.
		}
		w.stateMu.Unlock()
	}
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}

// WatchedPaths returns the absolute paths being watched.
func (w *Watcher) WatchedPaths() []string {
	return w.paths
}

// Pending returns the number of changed files not yet reported.
func (w *Watcher) Pending() int {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return len(w.pending)
}

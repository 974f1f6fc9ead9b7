// Package index provides the per-content-type ordered index: a persistent
// sorted map from [dateMillis, slug] keys to denormalized summary values.
//
// Each content type owns one index file in JSONL format, kept sorted by key.
// The file is the full store; Open loads it into memory and every mutation
// rewrites it atomically. An advisory flock serializes access per path, so
// callers open and close the index around each logical operation instead of
// holding it for the life of the process.
package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/natefinch/atomic"
)

// FileName is the index file per content type, under the index directory.
const FileName = "index.jsonl"

// Entry is one index record.
type Entry struct {
	Key   Key            `json:"key"`
	Value map[string]any `json:"value"`
}

// RangeOptions bound a scan over the index.
type RangeOptions struct {
	// Limit caps the number of entries yielded. 0 means no limit.
	Limit int
	// Offset skips that many entries before yielding.
	Offset int
	// Reverse yields newest-first instead of the natural ascending order.
	Reverse bool
}

// DB is an open index handle. It is not safe for concurrent use; the flock
// taken by Open serializes access across handles.
type DB struct {
	path    string
	lock    *fileLock
	entries []Entry // sorted ascending by Key
}

// Open locks and loads the index stored in dir, creating the directory as
// needed. Callers must Close the returned handle to release the lock.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for content directories
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	lock, err := acquireLock(path, lockTimeout)
	if err != nil {
		return nil, err
	}
	db := &DB{path: path, lock: lock}
	if err := db.load(); err != nil {
		lock.release()
		return nil, err
	}
	return db, nil
}

func (db *DB) load() error {
	f, err := os.Open(db.path)
	if err != nil {
		if os.IsNotExist(err) {
			db.entries = nil
			return nil
		}
		return fmt.Errorf("failed to open index file %s: %w", db.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("failed to unmarshal entry in %s: %w", db.path, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read index file %s: %w", db.path, err)
	}

	// Files written by Put are already sorted; re-sort defensively in case the
	// file was hand-edited or merged.
	slices.SortFunc(entries, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	db.entries = entries
	return nil
}

func (db *DB) persist() error {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, e := range db.entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s: %w", e.Key, err)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := atomic.WriteFile(db.path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to write index file %s: %w", db.path, err)
	}
	return nil
}

// Put inserts or replaces the entry for e.Key and persists the index.
func (db *DB) Put(e Entry) error {
	i, found := slices.BinarySearchFunc(db.entries, e, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	if found {
		db.entries[i] = e
	} else {
		db.entries = slices.Insert(db.entries, i, e)
	}
	return db.persist()
}

// Remove deletes the entry for k if present and persists the index.
// Removing an absent key is a no-op.
func (db *DB) Remove(k Key) error {
	i, found := slices.BinarySearchFunc(db.entries, Entry{Key: k}, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	if !found {
		return nil
	}
	db.entries = slices.Delete(db.entries, i, i+1)
	return db.persist()
}

// Get returns the entry for k, or false if absent.
func (db *DB) Get(k Key) (Entry, bool) {
	i, found := slices.BinarySearchFunc(db.entries, Entry{Key: k}, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	if !found {
		return Entry{}, false
	}
	return cloneEntry(db.entries[i]), true
}

// Count returns the number of entries.
func (db *DB) Count() int {
	return len(db.entries)
}

// Drop removes every entry. Used by index rebuilds.
func (db *DB) Drop() error {
	db.entries = nil
	return db.persist()
}

// Range returns an iterator over entries in key order, honoring opts.
// The iterator reads the handle's current state each time it is restarted.
func (db *DB) Range(opts RangeOptions) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		n := len(db.entries)
		yielded := 0
		for i := range n {
			if i < opts.Offset {
				continue
			}
			if opts.Limit > 0 && yielded >= opts.Limit {
				return
			}
			idx := i
			if opts.Reverse {
				idx = n - 1 - i
			}
			if !yield(cloneEntry(db.entries[idx])) {
				return
			}
			yielded++
		}
	}
}

// Close releases the index lock. The handle must not be used afterwards.
func (db *DB) Close() error {
	if db.lock != nil {
		db.lock.release()
		db.lock = nil
	}
	return nil
}

func cloneEntry(e Entry) Entry {
	if e.Value != nil {
		v := make(map[string]any, len(e.Value))
		for k, val := range e.Value {
			v[k] = val
		}
		e.Value = v
	}
	return e
}

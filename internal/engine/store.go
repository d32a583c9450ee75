// Package engine implements the Bitcask-style log-structured storage
// engine: the segmented append-only log, the in-memory memtable mapping
// every live key to a pointer inside some segment, and the compaction
// procedure that reclaims space.
package engine

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/mrshabel/bitkv/internal/kverrors"
)

// Store is the top-level façade. It owns the data directory, the ordered
// list of sealed segments, the active segment (the only one accepting
// writes), the memtable, and the mutation counter driving compaction.
type Store struct {
	dir           string
	cfg           Config
	segments      []*Segment // sealed, oldest first
	active        *Segment
	memtable      *Memtable
	mutationCount uint64
}

// Open loads every `.log` file in dir oldest-first, replaying each
// segment's hint into the memtable so later writes overwrite earlier ones,
// then allocates a fresh active segment for subsequent writes.
func Open(dir string, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}

	logPaths, err := listLogFiles(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{dir: dir, cfg: cfg, memtable: newMemtable()}

	for _, path := range logPaths {
		seg, err := openSegment(path)
		if err != nil {
			return nil, err
		}
		s.applyHint(seg)
		s.segments = append(s.segments, seg)
	}

	active, err := newSegment(dir)
	if err != nil {
		return nil, err
	}
	s.active = active
	return s, nil
}

// Stats reports a snapshot of the store's internal bookkeeping, used by the
// status HTTP endpoint (internal/statushttp) to expose read-only operational
// data without reaching into the store's unexported fields.
type Stats struct {
	SegmentCount      int    `json:"segment_count"`
	ActiveSegmentSize uint64 `json:"active_segment_size"`
	LiveKeyCount      int    `json:"live_key_count"`
	MutationCount     uint64 `json:"mutation_count"`
}

// Stats returns a point-in-time snapshot of the store's bookkeeping.
func (s *Store) Stats() Stats {
	return Stats{
		SegmentCount:      len(s.segments) + 1,
		ActiveSegmentSize: s.active.Size(),
		LiveKeyCount:      s.memtable.Len(),
		MutationCount:     s.mutationCount,
	}
}

// applyHint folds one segment's hint into the memtable: for every key in
// count, insert a pointer if offset still has it live, otherwise the
// segment recorded a removal and the key drops out of the memtable.
func (s *Store) applyHint(seg *Segment) {
	for key := range seg.hint.Count {
		if offset, ok := seg.hint.lookup(key); ok {
			s.memtable.Insert(key, Pointer{SegmentPath: seg.Path(), Offset: offset})
		} else {
			s.memtable.Remove(key)
		}
	}
}

func listLogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != logExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// Lexicographic sort equals creation-time order for the timestamped
	// naming scheme (spec.md §4.2).
	sort.Strings(paths)
	return paths, nil
}

// Set delegates to the active segment, records the returned pointer in the
// memtable, and triggers compaction once the mutation counter crosses the
// configured threshold.
func (s *Store) Set(key, value string) error {
	ptr, err := s.active.Set(key, value)
	if err != nil {
		return err
	}
	s.memtable.Insert(key, ptr)
	s.mutationCount++
	if s.mutationCount > s.cfg.CompactionThreshold {
		return s.compact()
	}
	return nil
}

// Get looks the key up in the memtable, then reads directly from the
// referenced segment: the active segment's own hint when the pointer names
// it, otherwise a transient read-only open of the sealed segment's log.
func (s *Store) Get(key string) (string, bool, error) {
	ptr, ok := s.memtable.Get(key)
	if !ok {
		return "", false, nil
	}
	if ptr.SegmentPath == s.active.Path() {
		return s.active.Get(key)
	}
	value, err := readPointer(ptr)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Keys returns a snapshot of every live key, used by the `bitkv dump`
// inspection subcommand to enumerate a store without mutating it.
func (s *Store) Keys() []string {
	return s.memtable.Keys()
}

// Remove requires key to exist in the memtable, appends a tombstone to the
// active segment, and drops the memtable entry.
func (s *Store) Remove(key string) error {
	if _, ok := s.memtable.Get(key); !ok {
		return kverrors.New(kverrors.KeyNotExist, nil)
	}
	if err := s.active.Remove(key); err != nil {
		return err
	}
	s.memtable.Remove(key)
	return nil
}

// Close flushes every segment's hint file and closes its handles.
func (s *Store) Close() error {
	var firstErr error
	for _, seg := range s.segments {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.active.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// readPointer opens ptr.SegmentPath read-only, reads sequentially from its
// offset, and decodes exactly one entry. A GET from a non-active segment
// opens a transient file descriptor per call and closes it immediately,
// bounding the open-file count per spec.md §5.
func readPointer(ptr Pointer) (string, error) {
	f, err := os.Open(ptr.SegmentPath)
	if err != nil {
		return "", kverrors.New(kverrors.Io, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", kverrors.New(kverrors.Io, err)
	}
	if ptr.Offset >= uint64(fi.Size()) {
		return "", kverrors.New(kverrors.InvalidLogPointer, nil)
	}

	entry, _, err := DecodeEntry(&offsetReader{f: f, pos: int64(ptr.Offset)})
	if err != nil {
		return "", err
	}
	if entry.Kind != KindSet {
		return "", kverrors.New(kverrors.InvalidLogEntry, nil)
	}
	return entry.Value, nil
}

// offsetReader adapts os.File.ReadAt into a sequential io.Reader starting
// at an arbitrary byte offset, without disturbing the file's read/write
// position (used only for the short-lived transient reads above).
type offsetReader struct {
	f   *os.File
	pos int64
}

func (r *offsetReader) Read(p []byte) (int, error) {
	n, err := r.f.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

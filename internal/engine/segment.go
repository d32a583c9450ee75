package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mrshabel/bitkv/internal/kverrors"
)

const (
	logExt  = ".log"
	hintExt = ".hint"
)

// segmentSeq disambiguates segment names created within the same
// microsecond, guaranteeing P1 (strict monotonic uniqueness) regardless of
// host clock resolution.
var segmentSeq uint64

func newSegmentName() string {
	now := time.Now().UTC()
	seq := atomic.AddUint64(&segmentSeq, 1)
	return fmt.Sprintf("%s-%06d-%010d", now.Format("2006-01-02-15-04-05"), now.Nanosecond()/1000, seq)
}

// Segment pairs a `.log` file (an append-only stream of encoded entries)
// with a `.hint` sidecar (the per-segment offset/count index). Only the
// store's active segment accepts appends; every other segment is sealed.
type Segment struct {
	logPath     string
	hintPath    string
	file        *os.File
	writer      *bufio.Writer
	writeOffset uint64
	hint        *Hint
}

// newSegment creates a fresh segment pair in dir under a monotonically
// unique base name. The log file is created exclusively.
func newSegment(dir string) (*Segment, error) {
	name := newSegmentName()
	logPath := filepath.Join(dir, name+logExt)
	hintPath := filepath.Join(dir, name+hintExt)

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_EXCL|os.O_APPEND, 0644)
	if err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}
	return &Segment{
		logPath:     logPath,
		hintPath:    hintPath,
		file:        f,
		writer:      bufio.NewWriter(f),
		writeOffset: 0,
		hint:        newHint(),
	}, nil
}

// openSegment opens an existing sealed or previously active segment,
// loading its hint or rebuilding it by scanning the log when the hint is
// missing or corrupt.
func openSegment(logPath string) (*Segment, error) {
	hintPath := strings.TrimSuffix(logPath, logExt) + hintExt

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kverrors.New(kverrors.Io, err)
	}

	hint, err := readHintFile(hintPath)
	if err != nil {
		hint, err = rebuildHint(logPath)
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	return &Segment{
		logPath:     logPath,
		hintPath:    hintPath,
		file:        f,
		writer:      bufio.NewWriter(f),
		writeOffset: uint64(fi.Size()),
		hint:        hint,
	}, nil
}

func (s *Segment) Path() string { return s.logPath }

// Set appends an encoded Set(key, value) entry and returns a pointer to it.
func (s *Segment) Set(key, value string) (Pointer, error) {
	pos := s.writeOffset
	buf := EncodeEntry(Entry{Kind: KindSet, Key: key, Value: value})
	if _, err := s.writer.Write(buf); err != nil {
		return Pointer{}, kverrors.New(kverrors.Io, err)
	}
	s.writeOffset += uint64(len(buf))
	s.hint.setOffset(key, pos)
	return Pointer{SegmentPath: s.logPath, Offset: pos}, nil
}

// Remove appends a Remove(key) tombstone. It does not verify whether key
// previously existed in this segment; liveness is governed at the store
// level.
func (s *Segment) Remove(key string) error {
	buf := EncodeEntry(Entry{Kind: KindRemove, Key: key})
	if _, err := s.writer.Write(buf); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	s.writeOffset += uint64(len(buf))
	s.hint.remove(key)
	return nil
}

// Get returns the value for key if this segment's hint has a live offset
// for it.
func (s *Segment) Get(key string) (string, bool, error) {
	offset, ok := s.hint.lookup(key)
	if !ok {
		return "", false, nil
	}
	if err := s.writer.Flush(); err != nil {
		return "", false, kverrors.New(kverrors.Io, err)
	}
	entry, err := s.readEntryAt(offset)
	if err != nil {
		return "", false, err
	}
	if entry.Kind != KindSet {
		return "", false, kverrors.New(kverrors.InvalidLogEntry, fmt.Errorf("offset %d is not a Set entry", offset))
	}
	return entry.Value, true, nil
}

func (s *Segment) readEntryAt(offset uint64) (Entry, error) {
	if offset >= s.writeOffset {
		return Entry{}, kverrors.New(kverrors.InvalidLogPointer, fmt.Errorf("offset %d outside segment size %d", offset, s.writeOffset))
	}
	n := int64(s.writeOffset - offset)
	buf := make([]byte, n)
	read, err := s.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return Entry{}, kverrors.New(kverrors.Io, err)
	}
	entry, _, err := DecodeEntry(bytes.NewReader(buf[:read]))
	if err == io.EOF {
		return Entry{}, kverrors.New(kverrors.InvalidLogEntry, io.ErrUnexpectedEOF)
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Flush writes the hint file in full (truncate-and-rewrite).
func (s *Segment) Flush() error {
	if err := s.writer.Flush(); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	return flushHint(s.hintPath, s.hint)
}

// Size returns the current log size.
func (s *Segment) Size() uint64 { return s.writeOffset }

func (s *Segment) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

// removeFiles closes the segment and deletes its log and hint files. Used
// by compaction to discard superseded segments.
func (s *Segment) removeFiles() error {
	s.file.Close()
	if err := os.Remove(s.logPath); err != nil && !os.IsNotExist(err) {
		return kverrors.New(kverrors.Io, err)
	}
	if err := os.Remove(s.hintPath); err != nil && !os.IsNotExist(err) {
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mrshabel/bitkv/internal/kverrors"
)

// enc is the byte order used for every length prefix and hint integer,
// matching the teacher's store.go convention of a package-level codec.
var enc = binary.BigEndian

// Kind tags which variant an Entry holds.
type Kind uint8

const (
	// KindSet tags a Set(key, value) mutation.
	KindSet Kind = iota
	// KindRemove tags a Remove(key) tombstone.
	KindRemove
)

// Entry is a single encoded mutation: either a set with key and value, or a
// remove tombstone carrying only a key.
type Entry struct {
	Kind  Kind
	Key   string
	Value string
}

// EncodeEntry serializes e into its self-delimiting wire form: a tag byte
// followed by length-prefixed UTF-8 strings.
func EncodeEntry(e Entry) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(e.Kind))
	writeString(buf, e.Key)
	if e.Kind == KindSet {
		writeString(buf, e.Value)
	}
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	enc.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

// DecodeEntry reads exactly one entry from r and reports how many bytes it
// consumed. A clean end of stream (no bytes read at all) is reported as
// io.EOF unwrapped, so callers scanning a log can tell "nothing left" from
// "log is corrupt". Any other truncation is reported as InvalidLogEntry.
func DecodeEntry(r io.Reader) (Entry, int, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		if err == io.EOF {
			return Entry{}, 0, io.EOF
		}
		return Entry{}, 0, kverrors.New(kverrors.InvalidLogEntry, err)
	}
	consumed := 1
	kind := Kind(tagBuf[0])
	if kind != KindSet && kind != KindRemove {
		return Entry{}, 0, kverrors.New(kverrors.InvalidLogEntry, fmt.Errorf("unknown entry tag %d", tagBuf[0]))
	}

	key, n, err := readString(r)
	if err != nil {
		return Entry{}, 0, err
	}
	consumed += n

	entry := Entry{Kind: kind, Key: key}
	if kind == KindSet {
		value, n2, err := readString(r)
		if err != nil {
			return Entry{}, 0, err
		}
		consumed += n2
		entry.Value = value
	}
	return entry, consumed, nil
}

func readString(r io.Reader) (string, int, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", 0, truncated(err)
	}
	size := enc.Uint32(lenBuf[:])
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", 0, truncated(err)
	}
	return string(data), 4 + int(size), nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return kverrors.New(kverrors.InvalidLogEntry, io.ErrUnexpectedEOF)
	}
	return kverrors.New(kverrors.Io, err)
}

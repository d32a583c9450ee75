// Package engineapi defines the capability surface shared by every storage
// backend and guards a data directory against being reopened by a different
// backend than the one that created it.
package engineapi

import (
	"os"
	"path/filepath"

	"github.com/mrshabel/bitkv/internal/kverrors"
)

// KvsEngine is the capability surface a backend must provide to serve
// traffic: Set, Get, Remove and a terminal Close. Both the native bitcask
// engine (internal/engine) and the boltdb-backed engine (internal/boltengine)
// satisfy it.
type KvsEngine interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Remove(key string) error
	Close() error
}

const sentinelFile = "engine"

// Name identifies a storage backend by the name persisted in a data
// directory's sentinel file.
type Name string

const (
	// Kvs is the native bitcask-style engine in internal/engine.
	Kvs Name = "kvs"
	// Bolt is the boltdb/bolt-backed engine in internal/boltengine.
	Bolt Name = "bolt"
)

// CheckAndMark reads dir's sentinel file, if any, and compares it against
// name. An existing sentinel naming a different engine is rejected with
// InvalidEngine so a directory can never be opened by two backends across
// its lifetime. When no sentinel exists yet, one is written recording name.
func CheckAndMark(dir string, name Name) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	path := filepath.Join(dir, sentinelFile)
	existing, err := os.ReadFile(path)
	if err == nil {
		if Name(existing) != name {
			return kverrors.New(kverrors.InvalidEngine, nil)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return kverrors.New(kverrors.Io, err)
	}
	if err := os.WriteFile(path, []byte(name), 0644); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

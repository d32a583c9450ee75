// Package boltengine implements the KvsEngine capability surface on top of
// boltdb/bolt, offered as an alternative to the native bitcask engine for
// workloads that prefer a battle-tested embedded B+tree over the
// segmented-log design (original_source's sled.rs plays the analogous role).
package boltengine

import (
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/mrshabel/bitkv/internal/kverrors"
)

var dataBucket = []byte("bitkv")

// Engine wraps a single boltdb database file and satisfies
// engineapi.KvsEngine.
type Engine struct {
	db *bolt.DB
}

// Open opens (creating if absent) a bolt database file inside dir and
// ensures the data bucket exists.
func Open(dir string) (*Engine, error) {
	path := filepath.Join(dir, "bitkv.bolt")
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(dataBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kverrors.New(kverrors.Io, err)
	}
	return &Engine{db: db}, nil
}

// Set writes key/value in a single update transaction.
func (e *Engine) Set(key, value string) error {
	err := e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(dataBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

// Get reads key inside a read-only transaction. The returned value is
// copied out of bolt's mmap'd page before the transaction closes.
func (e *Engine) Get(key string) (string, bool, error) {
	var value string
	var found bool
	err := e.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(dataBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		value = string(v)
		return nil
	})
	if err != nil {
		return "", false, kverrors.New(kverrors.Io, err)
	}
	return value, found, nil
}

// Remove deletes key, requiring it to already exist to match the native
// engine's KeyNotExist contract.
func (e *Engine) Remove(key string) error {
	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dataBucket)
		if b.Get([]byte(key)) == nil {
			return kverrors.New(kverrors.KeyNotExist, nil)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		if kverrors.Is(err, kverrors.KeyNotExist) {
			return err
		}
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

// Close closes the underlying bolt database.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return kverrors.New(kverrors.Io, err)
	}
	return nil
}

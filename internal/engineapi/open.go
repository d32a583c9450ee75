package engineapi

import (
	"github.com/mrshabel/bitkv/internal/boltengine"
	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/kverrors"
)

// Open marks or validates dir's engine sentinel against name and opens the
// corresponding backend.
func Open(dir string, name Name, cfg engine.Config) (KvsEngine, error) {
	if err := CheckAndMark(dir, name); err != nil {
		return nil, err
	}
	switch name {
	case Kvs:
		return engine.Open(dir, cfg)
	case Bolt:
		return boltengine.Open(dir)
	default:
		return nil, kverrors.New(kverrors.InvalidEngine, nil)
	}
}

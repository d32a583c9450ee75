package engineapi

import (
	"testing"

	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/kverrors"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsMismatchedEngine(t *testing.T) {
	dir := t.TempDir()

	kvs, err := Open(dir, Kvs, engine.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, kvs.Close())

	_, err = Open(dir, Bolt, engine.DefaultConfig())
	require.True(t, kverrors.Is(err, kverrors.InvalidEngine))
}

func TestOpenSameEngineTwiceSucceeds(t *testing.T) {
	dir := t.TempDir()

	kvs, err := Open(dir, Kvs, engine.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, kvs.Set("k1", "v1"))
	require.NoError(t, kvs.Close())

	reopened, err := Open(dir, Kvs, engine.DefaultConfig())
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)
}

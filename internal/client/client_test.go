package client_test

import (
	"net"
	"testing"

	"github.com/mrshabel/bitkv/internal/client"
	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/kverrors"
	"github.com/mrshabel/bitkv/internal/server"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	eng, err := engine.Open(dir, engine.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	srv := server.New(server.Config{Engine: eng})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.Serve(conn)
		}
	}()

	return ln.Addr().String()
}

func TestClientServerRoundTrip(t *testing.T) {
	addr := startServer(t)
	c, err := client.Connect(addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("k1", "v1"))

	v, ok, err := c.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.NoError(t, c.Remove("k1"))

	_, ok, err = c.Get("k1")
	require.NoError(t, err)
	require.False(t, ok)

	err = c.Remove("k1")
	require.True(t, kverrors.Is(err, kverrors.KeyNotExist))
}

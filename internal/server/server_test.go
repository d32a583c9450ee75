package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/resp"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) net.Conn {
	t.Helper()
	dir := t.TempDir()
	eng, err := engine.Open(dir, engine.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	srv := New(Config{Engine: eng})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.handleConn(conn)
		}
	}()

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendRequest(t *testing.T, r *bufio.Reader, conn net.Conn, verb string, args ...string) resp.Value {
	t.Helper()
	_, err := conn.Write(resp.Marshal(resp.Request(verb, args...)))
	require.NoError(t, err)
	v, err := resp.Read(r)
	require.NoError(t, err)
	return v
}

func TestServerSetGetRemove(t *testing.T) {
	conn := startTestServer(t)
	r := bufio.NewReader(conn)

	got := sendRequest(t, r, conn, "set", "k1", "v1")
	require.Equal(t, resp.NewSimple("OK"), got)

	got = sendRequest(t, r, conn, "get", "k1")
	require.Equal(t, resp.NewSimple("v1"), got)

	got = sendRequest(t, r, conn, "rm", "k1")
	require.Equal(t, resp.NewSimple("OK"), got)

	got = sendRequest(t, r, conn, "get", "k1")
	require.Equal(t, resp.NewNullBulk(), got)
}

func TestServerGetMissingKeyReturnsNullBulk(t *testing.T) {
	conn := startTestServer(t)
	r := bufio.NewReader(conn)

	got := sendRequest(t, r, conn, "get", "missing")
	require.Equal(t, resp.NewNullBulk(), got)
}

func TestServerRemoveMissingKeyReturnsError(t *testing.T) {
	conn := startTestServer(t)
	r := bufio.NewReader(conn)

	got := sendRequest(t, r, conn, "rm", "missing")
	require.Equal(t, resp.Err, got.Type)
}

func TestServerUnknownCommand(t *testing.T) {
	conn := startTestServer(t)
	r := bufio.NewReader(conn)

	got := sendRequest(t, r, conn, "frobnicate", "k1")
	require.Equal(t, resp.Err, got.Type)
}

// Package client implements a TCP client for the bitkv wire protocol,
// grounded in original_source's kv/client.rs: connect once, issue
// get/set/rm requests over the same stream.
package client

import (
	"bufio"
	"net"

	"github.com/mrshabel/bitkv/internal/kverrors"
	"github.com/mrshabel/bitkv/internal/resp"
)

// Client is a connected bitkv session.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Connect dials addr and returns a Client ready to issue requests.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, kverrors.New(kverrors.Io, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(verb string, args ...string) (resp.Value, error) {
	if _, err := c.conn.Write(resp.Marshal(resp.Request(verb, args...))); err != nil {
		return resp.Value{}, kverrors.New(kverrors.Io, err)
	}
	v, err := resp.Read(c.r)
	if err != nil {
		return resp.Value{}, err
	}
	return v, nil
}

// Set stores key/value on the server.
func (c *Client) Set(key, value string) error {
	v, err := c.roundTrip("set", key, value)
	if err != nil {
		return err
	}
	if v.Type == resp.Err {
		return kverrors.New(kverrors.Io, errString(v.Str))
	}
	return nil
}

// Get fetches key. The second return value is false on a miss.
func (c *Client) Get(key string) (string, bool, error) {
	v, err := c.roundTrip("get", key)
	if err != nil {
		return "", false, err
	}
	switch v.Type {
	case resp.NullBulk:
		return "", false, nil
	case resp.Err:
		return "", false, kverrors.New(kverrors.Io, errString(v.Str))
	default:
		return v.Str, true, nil
	}
}

// Remove deletes key, reporting KeyNotExist if the server didn't have it.
func (c *Client) Remove(key string) error {
	v, err := c.roundTrip("rm", key)
	if err != nil {
		return err
	}
	if v.Type == resp.Err {
		if v.Str == "Key not found" {
			return kverrors.New(kverrors.KeyNotExist, nil)
		}
		return kverrors.New(kverrors.Io, errString(v.Str))
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

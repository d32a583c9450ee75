// Package server implements the TCP front end that exposes a KvsEngine over
// the RESP-like wire protocol, in the spirit of the teacher's
// internal/server package: a small Config struct, a constructor, and
// per-connection handling, but serving a get/set/rm command surface instead
// of gRPC produce/consume.
package server

import (
	"bufio"
	"net"
	"sync"

	"github.com/mrshabel/bitkv/internal/engineapi"
	"github.com/mrshabel/bitkv/internal/kverrors"
	"github.com/mrshabel/bitkv/internal/resp"
	"go.uber.org/zap"
)

// Config carries everything a Server needs: the engine it serves and the
// logger it reports through.
type Config struct {
	Engine engineapi.KvsEngine
	Logger *zap.Logger
}

// Server accepts TCP connections and serves RESP requests against a single
// engine handle, serializing every call onto one mutex since the engine
// itself is not safe for concurrent use (spec.md §5).
type Server struct {
	cfg Config
	mu  sync.Mutex
}

// New builds a Server around cfg. A nil Logger is replaced with zap's no-op
// logger so callers never need a nil check.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{cfg: cfg}
}

// ListenAndServe binds addr and serves connections until the listener
// errors or is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.cfg.Logger.Info("listening", zap.String("addr", addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.Serve(conn)
	}
}

// Serve handles one already-accepted connection until it closes. Exposed so
// tests and alternate listeners can drive a connection directly.
func (s *Server) Serve(conn net.Conn) {
	s.handleConn(conn)
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.cfg.Logger.Info("peer connected", zap.String("peer", peer))

	r := bufio.NewReader(conn)
	for {
		req, err := resp.Read(r)
		if err != nil {
			s.cfg.Logger.Info("peer disconnected", zap.String("peer", peer), zap.Error(err))
			return
		}

		response := s.handleRequest(req)
		if _, err := conn.Write(resp.Marshal(response)); err != nil {
			s.cfg.Logger.Warn("write failed", zap.String("peer", peer), zap.Error(err))
			return
		}
	}
}

// handleRequest dispatches one already-parsed request to the engine and
// builds the RESP response. It never panics on an engine error: every
// failure is turned into a RESP error value.
func (s *Server) handleRequest(req resp.Value) resp.Value {
	args, ok := resp.AsStrings(req)
	if !ok || len(args) == 0 {
		return resp.NewError("invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch args[0] {
	case "set":
		if len(args) != 3 {
			return resp.NewError("set requires key and value")
		}
		if err := s.cfg.Engine.Set(args[1], args[2]); err != nil {
			s.cfg.Logger.Error("set failed", zap.String("key", args[1]), zap.Error(err))
			return resp.NewError(err.Error())
		}
		return resp.NewSimple("OK")
	case "get":
		if len(args) != 2 {
			return resp.NewError("get requires key")
		}
		value, found, err := s.cfg.Engine.Get(args[1])
		if err != nil {
			s.cfg.Logger.Error("get failed", zap.String("key", args[1]), zap.Error(err))
			return resp.NewError(err.Error())
		}
		if !found {
			return resp.NewNullBulk()
		}
		return resp.NewSimple(value)
	case "rm":
		if len(args) != 2 {
			return resp.NewError("rm requires key")
		}
		if err := s.cfg.Engine.Remove(args[1]); err != nil {
			if kverrors.Is(err, kverrors.KeyNotExist) {
				return resp.NewError("Key not found")
			}
			s.cfg.Logger.Error("rm failed", zap.String("key", args[1]), zap.Error(err))
			return resp.NewError(err.Error())
		}
		return resp.NewSimple("OK")
	default:
		return resp.NewError("unknown command: " + args[0])
	}
}

// Package statushttp exposes a read-only HTTP status endpoint alongside the
// TCP server, grounded in the teacher's internal/server/http.go
// (mux.NewRouter, HandleFunc, JSON encode) but serving store statistics
// instead of log records.
package statushttp

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mrshabel/bitkv/internal/engine"
)

// StatsProvider is satisfied by *engine.Store. The boltengine backend does
// not track the same bookkeeping, so the status endpoint is only wired up
// for the native engine in cmd/bitkv-server.
type StatsProvider interface {
	Stats() engine.Stats
}

// NewHTTPServer builds an *http.Server serving GET /status and GET /healthz
// on addr.
func NewHTTPServer(addr string, provider StatsProvider) *http.Server {
	h := &handler{provider: provider}
	router := mux.NewRouter()
	router.HandleFunc("/status", h.handleStatus).Methods("GET")
	router.HandleFunc("/healthz", h.handleHealthz).Methods("GET")
	return &http.Server{
		Addr:    addr,
		Handler: router,
	}
}

type handler struct {
	provider StatsProvider
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.provider.Stats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Command bitkv-server listens for RESP connections and serves them against
// a single data directory, backed by either the native bitcask engine or
// boltdb, guarded by the directory's engine sentinel file.
package main

import (
	"flag"
	"log"

	"github.com/mrshabel/bitkv/internal/config"
	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/engineapi"
	"github.com/mrshabel/bitkv/internal/server"
	"github.com/mrshabel/bitkv/internal/statushttp"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "address to bind the TCP listener")
	statusAddr := flag.String("status-addr", "127.0.0.1:4001", "address to bind the status HTTP endpoint")
	dataDir := flag.String("data-dir", "", "data directory (defaults to $BITKV_DIR or $HOME/.bitkv)")
	engineName := flag.String("engine", "kvs", "storage backend: kvs or bolt")
	debug := flag.Bool("debug", false, "use a development logger instead of a production one")
	flag.Parse()

	logger, err := buildLogger(*debug)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	dir := *dataDir
	if dir == "" {
		dir, err = config.DataDir()
		if err != nil {
			logger.Fatal("resolving data directory", zap.Error(err))
		}
	}

	eng, err := engineapi.Open(dir, engineapi.Name(*engineName), engine.DefaultConfig())
	if err != nil {
		logger.Fatal("opening engine", zap.String("dir", dir), zap.Error(err))
	}
	defer eng.Close()

	logger.Info("opened store", zap.String("dir", dir), zap.String("engine", *engineName))

	if store, ok := eng.(*engine.Store); ok {
		go serveStatus(*statusAddr, store, logger)
	}

	srv := server.New(server.Config{Engine: eng, Logger: logger})
	logger.Fatal("server exited", zap.Error(srv.ListenAndServe(*addr)))
}

func serveStatus(addr string, store *engine.Store, logger *zap.Logger) {
	httpSrv := statushttp.NewHTTPServer(addr, store)
	logger.Info("status endpoint listening", zap.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Warn("status endpoint stopped", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

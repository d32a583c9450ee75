// Command bitkv is the embedded, no-network counterpart to bitkv-client: it
// opens a data directory directly and runs one get/set/rm against it
// (original_source's bin/kvs.rs), plus a dump subcommand that opens a store
// without issuing any Set/Remove and prints every live key/value pair and
// basic segment statistics (supplementing the distillation per SPEC_FULL.md
// §10).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrshabel/bitkv/internal/config"
	"github.com/mrshabel/bitkv/internal/engine"
	"github.com/mrshabel/bitkv/internal/engineapi"
	"github.com/mrshabel/bitkv/internal/kverrors"
)

func main() {
	engineName := flag.String("engine", "kvs", "storage backend: kvs or bolt")
	dataDir := flag.String("data-dir", "", "data directory (defaults to $BITKV_DIR or $HOME/.bitkv)")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		usage()
	}

	dir := *dataDir
	if dir == "" {
		var err error
		dir, err = config.DataDir()
		if err != nil {
			fatal(err)
		}
	}

	switch args[0] {
	case "dump":
		dump(dir)
	case "get", "set", "rm":
		runCommand(dir, engineapi.Name(*engineName), args)
	default:
		usage()
	}
}

func runCommand(dir string, name engineapi.Name, args []string) {
	eng, err := engineapi.Open(dir, name, engine.DefaultConfig())
	if err != nil {
		fatal(err)
	}
	defer eng.Close()

	switch args[0] {
	case "get":
		if len(args) != 2 {
			usage()
		}
		value, ok, err := eng.Get(args[1])
		if err != nil {
			fatal(err)
		}
		if !ok {
			fmt.Println("Key not found")
			return
		}
		fmt.Println(value)
	case "set":
		if len(args) != 3 {
			usage()
		}
		if err := eng.Set(args[1], args[2]); err != nil {
			fatal(err)
		}
	case "rm":
		if len(args) != 2 {
			usage()
		}
		if err := eng.Remove(args[1]); err != nil {
			if kverrors.Is(err, kverrors.KeyNotExist) {
				fmt.Println("Key not found")
				os.Exit(1)
			}
			fatal(err)
		}
	}
}

// dump opens the native engine read-only (in the sense that it performs no
// Set/Remove calls) and prints every live key/value pair plus segment
// statistics, for inspecting a data directory without a running server.
func dump(dir string) {
	store, err := engine.Open(dir, engine.DefaultConfig())
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	keys := store.Keys()
	for _, key := range keys {
		value, ok, err := store.Get(key)
		if err != nil {
			fatal(err)
		}
		if !ok {
			continue
		}
		fmt.Printf("%s\t%s\n", key, value)
	}

	stats := store.Stats()
	fmt.Fprintf(os.Stderr, "\n%d keys, %d segments, active segment %d bytes, %d mutations since open\n",
		len(keys), stats.SegmentCount, stats.ActiveSegmentSize, stats.MutationCount)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bitkv [-engine kvs|bolt] [-data-dir DIR] get KEY | set KEY VALUE | rm KEY | dump")
	os.Exit(2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// Command bitkv-client issues a single get/set/rm request against a running
// bitkv-server and prints the result, grounded in original_source's
// kv/client.rs one-shot invocation style.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrshabel/bitkv/internal/client"
	"github.com/mrshabel/bitkv/internal/kverrors"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "server address")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		usage()
	}

	c, err := client.Connect(*addr)
	if err != nil {
		fatal(err)
	}
	defer c.Close()

	switch args[0] {
	case "get":
		if len(args) != 2 {
			usage()
		}
		value, ok, err := c.Get(args[1])
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
		if err := c.Set(args[1], args[2]); err != nil {
			fatal(err)
		}
	case "rm":
		if len(args) != 2 {
			usage()
		}
		if err := c.Remove(args[1]); err != nil {
			if kverrors.Is(err, kverrors.KeyNotExist) {
				fmt.Println("Key not found")
				os.Exit(1)
			}
			fatal(err)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bitkv-client [-addr host:port] get KEY | set KEY VALUE | rm KEY")
	os.Exit(2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// this module resolves the on-disk location of a bitkv data directory
package config

import (
	"os"
	"path/filepath"
)

// DataDir resolves the directory a store opens: $BITKV_DIR if set, else
// $HOME/.bitkv, following the teacher's env-var-or-home-directory fallback.
func DataDir() (string, error) {
	if dir := os.Getenv("BITKV_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".bitkv"), nil
}

package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the canonical runtime folder layout under the DB path.
type Paths struct {
	Store string
	State string
	Crash string
	Abort string
}

// PathsVar holds the resolved layout after Init.
var PathsVar Paths

// Init ensures the runtime folder layout exists under dbPath and records
// it in PathsVar. Paths must not be symlinks and must be writable by the
// process.
func Init(dbPath string) error {
	p := Paths{
		Store: filepath.Join(dbPath, "store"),
		State: filepath.Join(dbPath, "state"),
		Crash: filepath.Join(dbPath, "state", "crash"),
		Abort: filepath.Join(dbPath, "state", "abort"),
	}
	for _, dir := range []string{p.Store, p.Crash, p.Abort} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	PathsVar = p
	return nil
}

func ensureDir(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("cannot create parent for %s: %w", p, err)
	}
	if fi, err := os.Lstat(p); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("path is a symlink: %s", p)
		}
		if !fi.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %s", p)
		}
	}
	if err := os.MkdirAll(p, 0o700); err != nil {
		return fmt.Errorf("cannot create path %s: %w", p, err)
	}
	// writability check: create and remove a temp file
	tmp, err := os.CreateTemp(p, ".validate-*")
	if err != nil {
		return fmt.Errorf("path not writable: %s: %w", p, err)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())
	return nil
}

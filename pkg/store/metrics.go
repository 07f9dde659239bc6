package store

import (
	"io/fs"
	"path/filepath"
)

// DiskUsage returns the best-effort on-disk size of the database directory
// in bytes. Zero when the store is not open.
func DiskUsage() uint64 {
	mu.RLock()
	path := dbPath
	open := db != nil
	mu.RUnlock()
	if !open || path == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}

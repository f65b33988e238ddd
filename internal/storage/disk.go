package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage returns the size in bytes of each labelled path and their total.
// Paths may be files or directories (summed recursively). Empty or missing
// paths count as 0.
func DiskUsage(paths map[string]string) (map[string]int64, int64, error) {
	usage := make(map[string]int64, len(paths))
	var total int64
	for label, p := range paths {
		n, err := pathSize(p)
		if err != nil {
			return nil, 0, err
		}
		usage[label] = n
		total += n
	}
	return usage, total, nil
}

func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}

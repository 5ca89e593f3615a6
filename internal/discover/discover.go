// Package discover locates run stores on disk.
package discover

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the file extension of a run store.
const Extension = ".db3"

// Stores returns every *.db3 file under root, sorted.
//
// Paths containing any of the exclude substrings are left out. A missing
// root is logged and yields no stores rather than an error, so a batch over
// an absent data directory reports "no data".
func Stores(root string, exclude []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		logger.Warn("search path does not exist", "path", abs)
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", abs, err)
	}
	if !info.IsDir() {
		if strings.HasSuffix(abs, Extension) && !excluded(abs, exclude) {
			return []string{abs}, nil
		}
		return []string{}, nil
	}

	stores := []string{}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), Extension) {
			return nil
		}
		if excluded(path, exclude) {
			logger.Debug("excluded store", "path", path)
			return nil
		}
		stores = append(stores, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", abs, err)
	}

	sort.Strings(stores)
	return stores, nil
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

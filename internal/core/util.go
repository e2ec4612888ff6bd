package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath cleans a crate-relative path: forward slashes, no leading "./".
func NormalizePath(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	return strings.TrimPrefix(clean, "./")
}

// LoadCrate reads every .rs file under root into a source map keyed by
// crate-relative path.
func LoadCrate(root string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (d.Name() == "target" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[NormalizePath(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load crate: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .rs files under %s", root)
	}
	return files, nil
}

// WriteCrate writes rewritten sources back under root and removes files
// that were renamed away.
func WriteCrate(root string, before, after map[string]string) error {
	for name := range before {
		if _, ok := after[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(root, filepath.FromSlash(name))); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	for name, src := range after {
		if prev, ok := before[name]; ok && prev == src {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			return err
		}
	}
	return nil
}

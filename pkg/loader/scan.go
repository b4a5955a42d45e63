package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
)

// Scan walks dir in fsys and returns the files whose extension is one of
// exts, keyed by their path relative to dir without the extension.
// Dot files and dot directories are skipped. A missing dir yields an empty map.
func Scan(fsys fs.FS, dir string, exts ...string) (map[string]string, error) {
	files := make(map[string]string)
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if len(exts) > 0 && !slices.Contains(exts, ext) {
			return nil
		}
		rel := p
		if dir != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(p, dir), "/")
		}
		name := strings.TrimSuffix(rel, ext)
		if _, taken := files[name]; !taken {
			files[name] = p
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return files, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDir, dir, err)
	}
	return files, nil
}

// ScanAdapters scans the two-level <dir>/<kind>/<name>.<ext> layout.
// Files at other depths are ignored.
func ScanAdapters(fsys fs.FS, dir string, exts ...string) (map[string]map[string]string, error) {
	files, err := Scan(fsys, dir, exts...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	for name, p := range files {
		kind, item, ok := strings.Cut(name, "/")
		if !ok || kind == "" || item == "" || strings.Contains(item, "/") {
			continue
		}
		if out[kind] == nil {
			out[kind] = make(map[string]string)
		}
		out[kind][item] = p
	}
	return out, nil
}

// LoadDir scans dir and decodes every matching file with decode.
func LoadDir[T any](fsys fs.FS, dir string, decode func(name string, data []byte) (T, error), exts ...string) (map[string]T, error) {
	files, err := Scan(fsys, dir, exts...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(files))
	for _, name := range slices.Sorted(maps.Keys(files)) {
		data, err := fs.ReadFile(fsys, files[name])
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", files[name], err)
		}
		v, err := decode(files[name], data)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

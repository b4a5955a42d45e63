package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Extensions lists the supported config file extensions in lookup order.
var Extensions = []string{".yaml", ".yml", ".json", ".toml"}

// Decode parses a config file body. The format is chosen by the extension of name.
func Decode(name string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	var err error
	switch path.Ext(name) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	case ".json":
		err = json.Unmarshal(data, &out)
	case ".toml":
		err = toml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, name, err)
	}
	return out, nil
}

// Find returns the first existing file <dir>/<base><ext> for the supported
// extensions.
func Find(fsys fs.FS, dir, base string) (string, bool) {
	for _, ext := range Extensions {
		name := path.Join(dir, base+ext)
		if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

// LoadFile reads and decodes a single config file.
func LoadFile(fsys fs.FS, name string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Decode(name, data)
}

// LoadEnv loads <dir>/<base> and merges <dir>/<base>.<env> over it.
// Missing files are skipped.
func LoadEnv(fsys fs.FS, dir, base, env string) (map[string]any, error) {
	names := []string{base}
	if env != "" {
		names = append(names, base+"."+env)
	}

	layers := make([]map[string]any, 0, len(names))
	for _, n := range names {
		file, ok := Find(fsys, dir, n)
		if !ok {
			continue
		}
		m, err := LoadFile(fsys, file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		layers = append(layers, m)
	}
	return Merge(layers...)
}

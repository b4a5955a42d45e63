package router

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// Decode parses a router file body into its raw form, ready for Compile.
// The format is chosen by the extension of name.
func Decode(name string, data []byte) (any, error) {
	var raw any
	switch path.Ext(name) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("router: decode %s: %w", name, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("router: decode %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return raw, nil
}

// LoadFile reads and decodes a router file from fsys. The raw table is
// returned so that it can be recompiled on reload.
func LoadFile(fsys fs.FS, name string) (any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("router: read %s: %w", name, err)
	}
	return Decode(name, data)
}

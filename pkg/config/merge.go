package config

import (
	"errors"

	"dario.cat/mergo"
)

// Merge deep-merges sources left to right into a fresh mapping. Later
// sources win; nested mappings are merged and lists are replaced.
// Inputs are not modified.
func Merge(sources ...map[string]any) (map[string]any, error) {
	out := map[string]any{}
	for _, src := range sources {
		if len(src) == 0 {
			continue
		}
		if err := mergo.Merge(&out, Clone(src), mergo.WithOverride); err != nil {
			return nil, errors.Join(ErrMerge, err)
		}
	}
	return out, nil
}

package config

import (
	"fmt"
	"maps"
	"slices"
)

// HandleResolver looks up a registered adapter implementation by kind and name.
type HandleResolver interface {
	Adapter(kind, name string) (any, bool)
}

// FormatAdapters normalizes adapter sections in place-free fashion: the
// common section is merged under every type section and string handles are
// replaced with the implementation registered for the adapter kind.
// Empty sections are kept as they are.
func FormatAdapters(conf map[string]any, handles HandleResolver) (map[string]any, error) {
	out := Clone(conf)
	for _, kind := range slices.Sorted(maps.Keys(out)) {
		section, ok := out[kind].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: adapter.%s must be a mapping", ErrInvalidAdapter, kind)
		}
		if len(section) == 0 {
			continue
		}
		if _, ok := section["type"]; !ok {
			return nil, fmt.Errorf("%w: adapter.%s must have a type field", ErrInvalidAdapter, kind)
		}

		common := map[string]any{}
		if raw, ok := section["common"]; ok {
			if common, ok = raw.(map[string]any); !ok {
				return nil, fmt.Errorf("%w: adapter.%s.common must be a mapping", ErrInvalidAdapter, kind)
			}
			delete(section, "common")
		}

		for name, raw := range section {
			if name == "type" {
				continue
			}
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			merged, err := Merge(common, item)
			if err != nil {
				return nil, err
			}
			if handle, ok := merged["handle"].(string); ok && handle != "" {
				impl, found := lookupHandle(handles, kind, handle)
				if !found {
					return nil, fmt.Errorf("%w: adapter.%s.%s.handle %q", ErrUnknownHandle, kind, name, handle)
				}
				merged["handle"] = impl
			}
			section[name] = merged
		}
	}
	return out, nil
}

func lookupHandle(handles HandleResolver, kind, name string) (any, bool) {
	if handles == nil {
		return nil, false
	}
	return handles.Adapter(kind, name)
}

// ActiveAdapter returns the type section selected by the type field of
// an adapter kind, for example adapter "cache" with type "redis" returns
// the "redis" section.
func ActiveAdapter(conf map[string]any, kind string) (string, map[string]any, bool) {
	section, ok := conf[kind].(map[string]any)
	if !ok {
		return "", nil, false
	}
	typ, _ := section["type"].(string)
	if typ == "" {
		return "", nil, false
	}
	item, ok := section[typ].(map[string]any)
	if !ok {
		item = map[string]any{}
	}
	return typ, item, true
}

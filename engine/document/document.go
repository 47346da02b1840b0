package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mohae/deepcopy"
)

// Document is a nested configuration document. Top-level keys are section
// names (branding, features, ui, ...); values are scalars, sequences or
// nested mappings.
type Document map[string]any

// Clone returns a deep copy. Cached documents are always cloned before being
// handed to callers so no caller can mutate a cached copy in place.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	copied, ok := deepcopy.Copy(map[string]any(d)).(map[string]any)
	if !ok {
		return Document{}
	}
	return Document(copied)
}

// Section returns the named top-level section as a Document.
func (d Document) Section(name string) (Document, bool) {
	raw, ok := d[name]
	if !ok {
		return nil, false
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	return Document(section), true
}

// Lookup resolves a dotted path like "branding.companyName". The second
// return value reports whether the full path exists.
func (d Document) Lookup(path string) (any, bool) {
	current := any(map[string]any(d))
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes a value at a dotted path, creating intermediate mappings as
// needed. It fails when an intermediate path element resolves to a
// non-mapping value.
func (d Document) Set(path string, value any) error {
	keys := strings.Split(path, ".")
	current := map[string]any(d)
	for i, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok {
			child := make(map[string]any)
			current[key] = child
			current = child
			continue
		}
		node, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path %q: %q is not a mapping", path, strings.Join(keys[:i+1], "."))
		}
		current = node
	}
	current[keys[len(keys)-1]] = value
	return nil
}

// HasPath reports whether a dotted path exists in the document.
func (d Document) HasPath(path string) bool {
	_, ok := d.Lookup(path)
	return ok
}

// Flatten converts the document into dotted-path → leaf-value pairs.
// Sequences are treated as leaves; they merge wholesale, never element-wise.
func (d Document) Flatten() map[string]any {
	result := make(map[string]any)
	flattenInto("", map[string]any(d), result)
	return result
}

func flattenInto(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Paths returns the sorted dotted paths of all leaves.
func (d Document) Paths() []string {
	flat := d.Flatten()
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FromFlat builds a nested document out of dotted-path pairs.
func FromFlat(flat map[string]any) (Document, error) {
	doc := Document{}
	for path, value := range flat {
		if err := doc.Set(path, value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Equal compares two documents by canonical JSON encoding. Resolution is
// deterministic, so equal inputs must yield byte-identical encodings.
func (d Document) Equal(other Document) bool {
	a, err := json.Marshal(d)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

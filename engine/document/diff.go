package document

import (
	"fmt"
	"sort"
)

// Diff lists the dotted paths that differ between two documents. An empty
// diff means the documents are identical.
type Diff struct {
	Added   []string `json:"added"`
	Changed []string `json:"changed"`
	Removed []string `json:"removed"`
}

// Empty reports whether the diff carries no changes.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

func (d *Diff) String() string {
	return fmt.Sprintf("added=%d changed=%d removed=%d", len(d.Added), len(d.Changed), len(d.Removed))
}

// Compare computes the leaf-level diff from old to new.
func Compare(oldDoc, newDoc Document) *Diff {
	oldFlat := oldDoc.Flatten()
	newFlat := newDoc.Flatten()
	diff := &Diff{
		Added:   []string{},
		Changed: []string{},
		Removed: []string{},
	}
	for path, newVal := range newFlat {
		oldVal, existed := oldFlat[path]
		switch {
		case !existed:
			diff.Added = append(diff.Added, path)
		case fmt.Sprintf("%v", oldVal) != fmt.Sprintf("%v", newVal):
			diff.Changed = append(diff.Changed, path)
		}
	}
	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			diff.Removed = append(diff.Removed, path)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Removed)
	return diff
}

package entity

import (
	"sort"
	"strings"
)

// ChangeKind classifies a field-level difference.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Change is one field-level difference between two records. Old is empty for
// ChangeAdded and New is empty for ChangeRemoved.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Key  string     `json:"key"`
	Old  string     `json:"old,omitempty"`
	New  string     `json:"new,omitempty"`
}

// String renders the change as a single line.
func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return "+ " + c.Key + ": " + c.New
	case ChangeRemoved:
		return "- " + c.Key + ": " + c.Old
	default:
		return "~ " + c.Key + ": " + c.Old + " -> " + c.New
	}
}

// ChangeSet lists the differences between two records.
type ChangeSet []Change

// Empty reports whether the records compared equal.
func (cs ChangeSet) Empty() bool { return len(cs) == 0 }

// Render formats the change set one line per change, ordered by key.
func (cs ChangeSet) Render() string {
	sorted := make(ChangeSet, len(cs))
	copy(sorted, cs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	lines := make([]string, len(sorted))
	for i, c := range sorted {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

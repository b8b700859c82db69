package annotation

import (
	"sort"

	"github.com/menta2k/image-object-slicer/pkg/types"
)

// LabelSet is the set of distinct labels seen across slice groups.
// It is not safe for concurrent use: build one per task and Union them.
type LabelSet map[string]struct{}

// NewLabelSet returns a set holding the labels of boxes
func NewLabelSet(boxes ...types.Box) LabelSet {
	s := make(LabelSet)
	s.Add(boxes...)
	return s
}

// Add inserts the labels of boxes
func (s LabelSet) Add(boxes ...types.Box) {
	for _, b := range boxes {
		s[b.Label] = struct{}{}
	}
}

// Union inserts every label of other into s
func (s LabelSet) Union(other LabelSet) {
	for label := range other {
		s[label] = struct{}{}
	}
}

// Has reports whether label is in the set
func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Len returns the number of labels
func (s LabelSet) Len() int {
	return len(s)
}

// Sorted returns the labels in lexical order
func (s LabelSet) Sorted() []string {
	labels := make([]string, 0, len(s))
	for label := range s {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

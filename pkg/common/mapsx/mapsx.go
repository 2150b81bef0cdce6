package mapsx

import (
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/maps"
)

func Equal(current map[string]any, updated map[string]any) bool {
	return EqualIgnoring(current, updated, []string{})
}

// EqualIgnoring reports if applying 'updated' on top of 'current' would change anything,
// skipping the ignored keys on both sides.
func EqualIgnoring(current map[string]any, updated map[string]any, ignored []string) bool {
	before := maps.Clone(current)
	predicted := maps.Clone(current)
	maps.Copy(predicted, updated)
	for _, name := range ignored {
		delete(predicted, name)
		delete(before, name)
	}
	return cmp.Equal(before, predicted)
}

// internal/catalog/collection.go
package catalog

import (
	"iter"
	"slices"
)

// Collection is an insertion-ordered container keyed by an id extracted
// from each item. Duplicate ids are not rejected; lookups return the first match.
type Collection[T any] struct {
	items []T
	key   func(T) string
}

// NewCollection returns an empty collection using key to identify items.
func NewCollection[T any](key func(T) string) *Collection[T] {
	return &Collection[T]{key: key}
}

// Add appends item to the end of the collection.
func (c *Collection[T]) Add(item T) {
	c.items = append(c.items, item)
}

// RemoveByID removes the first item whose id matches and reports whether one was found.
func (c *Collection[T]) RemoveByID(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// GetByID returns the first item whose id matches.
func (c *Collection[T]) GetByID(id string) (T, bool) {
	i := c.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// All yields the items in insertion order. The sequence can be ranged over
// repeatedly and reflects the collection at the time each range starts.
func (c *Collection[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range slices.Clone(c.items) {
			if !yield(item) {
				return
			}
		}
	}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

func (c *Collection[T]) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool {
		return c.key(item) == id
	})
}

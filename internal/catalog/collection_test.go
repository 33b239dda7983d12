package catalog

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	id   string
	name string
}

func newRecordCollection() *Collection[record] {
	return NewCollection(func(r record) string { return r.id })
}

func TestCollectionPreservesInsertionOrder(t *testing.T) {
	c := newRecordCollection()
	c.Add(record{"b", "second"})
	c.Add(record{"a", "first"})
	c.Add(record{"c", "third"})

	assert.Equal(t, []record{{"b", "second"}, {"a", "first"}, {"c", "third"}}, slices.Collect(c.All()))
	assert.Equal(t, 3, c.Len())
}

func TestCollectionGetByID(t *testing.T) {
	c := newRecordCollection()
	c.Add(record{"x", "one"})

	got, ok := c.GetByID("x")
	require.True(t, ok)
	assert.Equal(t, "one", got.name)

	got, ok = c.GetByID("missing")
	assert.False(t, ok)
	assert.Equal(t, record{}, got)
}

func TestCollectionRemoveByIDTakesFirstDuplicate(t *testing.T) {
	c := newRecordCollection()
	c.Add(record{"dup", "first"})
	c.Add(record{"other", "middle"})
	c.Add(record{"dup", "second"})

	require.True(t, c.RemoveByID("dup"))

	got, ok := c.GetByID("dup")
	require.True(t, ok)
	assert.Equal(t, "second", got.name)
	assert.Equal(t, []record{{"other", "middle"}, {"dup", "second"}}, slices.Collect(c.All()))

	require.True(t, c.RemoveByID("dup"))
	assert.False(t, c.RemoveByID("dup"))
	assert.Equal(t, 1, c.Len())
}

func TestCollectionRemoveMissingReportsNotFound(t *testing.T) {
	c := newRecordCollection()
	c.Add(record{"a", "kept"})

	assert.False(t, c.RemoveByID("b"))
	assert.Equal(t, 1, c.Len())
}

func TestCollectionIterationIsRestartable(t *testing.T) {
	c := newRecordCollection()
	c.Add(record{"a", "1"})
	c.Add(record{"b", "2"})

	seq := c.All()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	for r := range seq {
		assert.Equal(t, "a", r.id)
		break
	}

	c.Add(record{"c", "3"})
	assert.Len(t, slices.Collect(seq), 3)
}

func TestCollectionEmpty(t *testing.T) {
	c := newRecordCollection()
	assert.Empty(t, slices.Collect(c.All()))
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.RemoveByID(""))
}

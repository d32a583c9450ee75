package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemtableInsertGetRemove(t *testing.T) {
	m := newMemtable()
	ptr := Pointer{SegmentPath: "a.log", Offset: 42}
	m.Insert("k1", ptr)

	got, ok := m.Get("k1")
	require.True(t, ok)
	require.Equal(t, ptr, got)

	m.Remove("k1")
	_, ok = m.Get("k1")
	require.False(t, ok)
}

func TestMemtableKeys(t *testing.T) {
	m := newMemtable()
	m.Insert("k1", Pointer{SegmentPath: "a.log", Offset: 1})
	m.Insert("k2", Pointer{SegmentPath: "a.log", Offset: 2})
	require.ElementsMatch(t, []string{"k1", "k2"}, m.Keys())
	require.Equal(t, 2, m.Len())
}

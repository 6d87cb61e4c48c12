package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedSetDeduplicates(t *testing.T) {
	s := NewOrderedSet[int, string]()
	assert.True(t, s.Push(1, "a"))
	assert.True(t, s.Push(2, "b"))
	assert.False(t, s.Push(1, "again"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Drain())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(1))
}

func TestOrderedSetRemoveKeepsOrder(t *testing.T) {
	s := NewOrderedSet[string, int]()
	s.Push("x", 1)
	s.Push("y", 2)
	s.Push("z", 3)
	assert.True(t, s.Remove("y"))
	assert.False(t, s.Remove("y"))
	assert.Equal(t, []int{1, 3}, s.Values())
	assert.True(t, s.Push("y", 4))
	assert.Equal(t, []int{1, 3, 4}, s.Drain())
}

func TestLoggerDefaultsSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	SetLogger(nil)
	assert.NotNil(t, Logger())
	assert.False(t, Logger().Enabled(t.Context(), 0))
}

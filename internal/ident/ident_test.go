package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_Length(t *testing.T) {
	g := New()
	id := g.Next()
	assert.Len(t, id, 26)
}

func TestNext_StrictlyIncreasing(t *testing.T) {
	g := New()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		id := g.Next()
		assert.Greater(t, id, prev, "sequence must be strictly increasing even within the same millisecond")
		prev = id
	}
}

func TestNext_AlphabetIsCrockford(t *testing.T) {
	g := New()
	id := g.Next()
	for _, r := range id {
		assert.Contains(t, crockford, string(r))
	}
}

func TestIncrementTail_Overflow(t *testing.T) {
	var tail [10]byte
	for i := range tail {
		tail[i] = 0xFF
	}
	overflowed := incrementTail(&tail)
	assert.True(t, overflowed)
	for _, b := range tail {
		assert.Equal(t, byte(0), b)
	}
}

func TestIncrementTail_NoOverflow(t *testing.T) {
	var tail [10]byte
	overflowed := incrementTail(&tail)
	assert.False(t, overflowed)
	assert.Equal(t, byte(1), tail[9])
}

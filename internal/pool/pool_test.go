package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceReuse(t *testing.T) {
	p := NewSlice[int](8)

	buf := p.Get()
	*buf = append(*buf, 1, 2, 3)
	p.Put(buf)

	// A reused buffer comes back empty but keeps its capacity.
	again := p.Get()
	assert.Len(t, *again, 0)
	assert.GreaterOrEqual(t, cap(*again), 3)
}

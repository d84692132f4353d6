package math32

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, float32(1), Round(0.6))
	assert.Equal(t, float32(0), Round(0.4))
	assert.Equal(t, float32(-1), Round(-0.6))
	assert.Equal(t, float32(1), Round(0.5))
	assert.Equal(t, float32(-1), Round(-0.5))
}

func TestSqrt(t *testing.T) {
	assert.InDelta(t, 3.0, Sqrt(9), 1e-6)
	assert.True(t, IsNaN(Sqrt(-1)))
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, float32(1), Min(1, 2))
	assert.Equal(t, float32(2), Max(1, 2))
}

func TestIsNaN(t *testing.T) {
	assert.True(t, IsNaN(float32(math.NaN())))
	assert.False(t, IsNaN(0))
}

package aabb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/periq/periq/box"
)

func TestOverlap(t *testing.T) {
	b := AABB{Lower: box.Vec3{X: 0, Y: 0, Z: 0}, Upper: box.Vec3{X: 1, Y: 1, Z: 1}}

	tests := []struct {
		name string
		s    Sphere
		want bool
	}{
		{"center inside", Sphere{box.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, 0.1}, true},
		{"touching face", Sphere{box.Vec3{X: 1.5, Y: 0.5, Z: 0.5}, 0.5}, true},
		{"outside face", Sphere{box.Vec3{X: 1.6, Y: 0.5, Z: 0.5}, 0.5}, false},
		{"corner hit", Sphere{box.Vec3{X: 1.2, Y: 1.2, Z: 1.2}, 0.5}, true},
		{"corner miss", Sphere{box.Vec3{X: 1.3, Y: 1.3, Z: 1.3}, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlap(b, tt.s))
		})
	}
}

func TestOverlapDegenerate(t *testing.T) {
	p := NewPoint(box.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, 7)
	assert.Equal(t, uint32(7), p.Tag)
	assert.True(t, Overlap(p, Sphere{box.Vec3{X: 0.5, Y: 0.5, Z: 0.6}, 0.2}))
	assert.False(t, Overlap(p, Sphere{box.Vec3{X: 0.5, Y: 0.5, Z: 0.8}, 0.2}))
}

func TestUnion(t *testing.T) {
	a := NewPoint(box.Vec3{X: 0, Y: 0, Z: 0}, 0)
	b := NewPoint(box.Vec3{X: 1, Y: -1, Z: 2}, 1)
	u := Union(a, b)
	assert.Equal(t, box.Vec3{X: 0, Y: -1, Z: 0}, u.Lower)
	assert.Equal(t, box.Vec3{X: 1, Y: 0, Z: 2}, u.Upper)
	assert.Equal(t, box.Vec3{X: 0.5, Y: -0.5, Z: 1}, u.Center())
}

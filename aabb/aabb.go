// Package aabb implements axis-aligned bounding boxes and a flat, stackless
// binary AABB tree over tagged points. Trees are built once by recursive
// median split and
// traversed using per-node skip offsets instead of an explicit stack, so a
// traversal needs only a single node cursor that can be suspended and
// resumed between calls.
package aabb

import "github.com/periq/periq/box"

// AABB is an axis-aligned bounding box with an associated tag. Leaf AABBs
// are degenerate (zero extent) and tag the index of the point they bound.
type AABB struct {
	Lower box.Vec3
	Upper box.Vec3
	Tag   uint32
}

// NewPoint creates a degenerate AABB around a single point.
func NewPoint(p box.Vec3, tag uint32) AABB {
	return AABB{Lower: p, Upper: p, Tag: tag}
}

// Union returns the smallest AABB enclosing a and b. The tag is not
// meaningful on union boxes.
func Union(a, b AABB) AABB {
	return AABB{
		Lower: box.Vec3{
			X: min(a.Lower.X, b.Lower.X),
			Y: min(a.Lower.Y, b.Lower.Y),
			Z: min(a.Lower.Z, b.Lower.Z),
		},
		Upper: box.Vec3{
			X: max(a.Upper.X, b.Upper.X),
			Y: max(a.Upper.Y, b.Upper.Y),
			Z: max(a.Upper.Z, b.Upper.Z),
		},
	}
}

// Center returns the center point of the box.
func (a AABB) Center() box.Vec3 {
	return a.Lower.Add(a.Upper).Scale(0.5)
}

// Sphere is a ball used as a traversal predicate against tree AABBs.
type Sphere struct {
	Center box.Vec3
	R      float32
}

// Overlap reports whether the sphere intersects the closed box: the squared
// distance from the sphere center to the box is at most R squared.
func Overlap(a AABB, s Sphere) bool {
	var d2 float32
	d2 += axisDistSq(s.Center.X, a.Lower.X, a.Upper.X)
	d2 += axisDistSq(s.Center.Y, a.Lower.Y, a.Upper.Y)
	d2 += axisDistSq(s.Center.Z, a.Lower.Z, a.Upper.Z)
	return d2 <= s.R*s.R
}

func axisDistSq(c, lo, hi float32) float32 {
	if c < lo {
		d := lo - c
		return d * d
	}
	if c > hi {
		d := c - hi
		return d * d
	}
	return 0
}

// Package box implements the periodic simulation cell used by neighbor
// queries: a parallelepiped spanned by three lattice vectors with optional
// periodicity along each axis, supporting minimum-image displacement
// wrapping in both orthorhombic and triclinic geometries.
package box

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/periq/periq/internal/math32"
)

// Vec3 is a 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// LengthSq returns the squared Euclidean length of v.
func (v Vec3) LengthSq() float32 {
	return v.Dot(v)
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSq())
}

// Box is a parallelepipedal simulation cell spanned by lattice vectors
// a, b, c with per-axis periodicity. A Box is immutable after construction
// and safe for concurrent use.
type Box struct {
	a, b, c      Vec3
	periodic     [3]bool
	is2D         bool
	orthorhombic bool

	// inv is the row-major inverse of the lattice matrix [a b c],
	// used to map Cartesian displacements to fractional coordinates.
	inv [3][3]float32
}

// Option configures Box construction.
type Option func(*Box)

// WithPeriodic sets the per-axis periodicity flags. For 2D boxes the z flag
// is ignored and forced to false.
func WithPeriodic(x, y, z bool) Option {
	return func(b *Box) {
		b.periodic = [3]bool{x, y, z}
	}
}

// New creates an orthorhombic 3D box with edge lengths lx, ly, lz.
// The box is periodic along all axes unless WithPeriodic says otherwise.
func New(lx, ly, lz float32, opts ...Option) Box {
	b := Box{
		a:            Vec3{X: lx},
		b:            Vec3{Y: ly},
		c:            Vec3{Z: lz},
		periodic:     [3]bool{true, true, true},
		orthorhombic: true,
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.inv = [3][3]float32{
		{1 / lx, 0, 0},
		{0, 1 / ly, 0},
		{0, 0, 1 / lz},
	}
	return b
}

// New2D creates an orthorhombic 2D box with edge lengths lx, ly. The third
// lattice vector is fixed to (0,0,1) and never periodic; z components of
// wrapped displacements are zeroed.
func New2D(lx, ly float32, opts ...Option) Box {
	b := New(lx, ly, 1, opts...)
	b.is2D = true
	b.periodic[2] = false
	return b
}

// NewTriclinic creates a 3D box from three lattice vectors. It returns an
// error if the vectors do not span a volume.
func NewTriclinic(a, b, c Vec3, opts ...Option) (Box, error) {
	bx := Box{
		a:        a,
		b:        b,
		c:        c,
		periodic: [3]bool{true, true, true},
	}
	for _, opt := range opts {
		opt(&bx)
	}

	m := mat.NewDense(3, 3, []float64{
		float64(a.X), float64(b.X), float64(c.X),
		float64(a.Y), float64(b.Y), float64(c.Y),
		float64(a.Z), float64(b.Z), float64(c.Z),
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Box{}, fmt.Errorf("singular lattice: %w", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			bx.inv[i][j] = float32(inv.At(i, j))
		}
	}
	return bx, nil
}

// LatticeVector returns the i-th lattice vector, i in {0,1,2}.
func (b Box) LatticeVector(i int) Vec3 {
	switch i {
	case 0:
		return b.a
	case 1:
		return b.b
	case 2:
		return b.c
	}
	panic(fmt.Sprintf("box: lattice vector index %d out of range", i))
}

// Periodic returns the per-axis periodicity flags.
func (b Box) Periodic() [3]bool {
	return b.periodic
}

// Is2D reports whether the box is two-dimensional.
func (b Box) Is2D() bool {
	return b.is2D
}

// Volume returns the cell volume (area times unit height for 2D boxes).
func (b Box) Volume() float32 {
	return math32.Abs(b.a.Dot(b.b.Cross(b.c)))
}

// fractional maps a Cartesian displacement to fractional lattice coordinates.
func (b Box) fractional(v Vec3) Vec3 {
	return Vec3{
		b.inv[0][0]*v.X + b.inv[0][1]*v.Y + b.inv[0][2]*v.Z,
		b.inv[1][0]*v.X + b.inv[1][1]*v.Y + b.inv[1][2]*v.Z,
		b.inv[2][0]*v.X + b.inv[2][1]*v.Y + b.inv[2][2]*v.Z,
	}
}

// cartesian maps fractional lattice coordinates back to a Cartesian vector.
func (b Box) cartesian(f Vec3) Vec3 {
	return b.a.Scale(f.X).Add(b.b.Scale(f.Y)).Add(b.c.Scale(f.Z))
}

// Wrap returns the minimum-image representative of the displacement v:
// v minus the integer combination of lattice vectors that minimizes its
// length, considering only periodic axes. One application suffices for
// displacements within one cell of the origin on each axis. For 2D boxes
// the z component is zeroed on input and output.
func (b Box) Wrap(v Vec3) Vec3 {
	if b.is2D {
		v.Z = 0
	}
	if b.orthorhombic {
		if b.periodic[0] {
			v.X -= math32.Round(v.X/b.a.X) * b.a.X
		}
		if b.periodic[1] {
			v.Y -= math32.Round(v.Y/b.b.Y) * b.b.Y
		}
		if b.periodic[2] {
			v.Z -= math32.Round(v.Z/b.c.Z) * b.c.Z
		}
		return v
	}

	f := b.fractional(v)
	if b.periodic[0] {
		f.X -= math32.Round(f.X)
	}
	if b.periodic[1] {
		f.Y -= math32.Round(f.Y)
	}
	if b.periodic[2] {
		f.Z -= math32.Round(f.Z)
	}
	w := b.cartesian(f)
	if b.is2D {
		w.Z = 0
	}
	return w
}

// NearestPlaneDistance returns, per axis, the distance between the two
// opposing faces of the cell.
func (b Box) NearestPlaneDistance() Vec3 {
	vol := b.Volume()
	return Vec3{
		X: vol / b.b.Cross(b.c).Length(),
		Y: vol / b.c.Cross(b.a).Length(),
		Z: vol / b.a.Cross(b.b).Length(),
	}
}

// MinPlaneDistance returns the smallest nearest-plane distance. The z axis
// is excluded for 2D boxes.
func (b Box) MinPlaneDistance() float32 {
	d := b.NearestPlaneDistance()
	min := math32.Min(d.X, d.Y)
	if !b.is2D {
		min = math32.Min(min, d.Z)
	}
	return min
}

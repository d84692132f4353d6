package periq

import "fmt"

// QueryMode selects the kind of neighbor query to perform.
type QueryMode int

const (
	// ModeNone is the default mode; the mode is inferred from the other
	// arguments when possible.
	ModeNone QueryMode = iota
	// ModeBall finds all points within a distance cutoff.
	ModeBall
	// ModeNearest finds a fixed number of nearest neighbors.
	ModeNearest
)

// String implements fmt.Stringer.
func (m QueryMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBall:
		return "ball"
	case ModeNearest:
		return "nearest"
	}
	return fmt.Sprintf("QueryMode(%d)", int(m))
}

// Defaults for QueryArgs fields.
const (
	DefaultMode         = ModeNone
	DefaultNumNeighbors = -1
	DefaultRMax         = float32(-1)
	DefaultScale        = float32(1.1)
	DefaultExcludeII    = false
)

// QueryArgs specifies the nature of a query. Rather than calling a
// mode-specific function, callers can fill in the relevant fields and pass
// the record to the generic Query method.
type QueryArgs struct {
	// Mode is the query kind. When left as ModeNone it is inferred:
	// a set NumNeighbors implies ModeNearest, otherwise a set RMax
	// implies ModeBall.
	Mode QueryMode

	// NumNeighbors is the number of nearest neighbors to find. -1 means
	// unset.
	NumNeighbors int

	// RMax is the cutoff distance for ball queries, and the initial
	// search radius for nearest-neighbor queries. -1 means unset.
	RMax float32

	// Scale is the radius growth factor for repeated ball queries in
	// nearest-neighbor mode. Must be > 1.
	Scale float32

	// ExcludeII drops bonds whose query and point indices coincide, for
	// querying a point set against itself.
	ExcludeII bool
}

// NewQueryArgs returns a QueryArgs with all fields at their defaults.
func NewQueryArgs() QueryArgs {
	return QueryArgs{
		Mode:         DefaultMode,
		NumNeighbors: DefaultNumNeighbors,
		RMax:         DefaultRMax,
		Scale:        DefaultScale,
		ExcludeII:    DefaultExcludeII,
	}
}

// BallArgs returns QueryArgs for a ball query with cutoff rmax.
func BallArgs(rmax float32, excludeII bool) QueryArgs {
	a := NewQueryArgs()
	a.Mode = ModeBall
	a.RMax = rmax
	a.ExcludeII = excludeII
	return a
}

// NearestArgs returns QueryArgs for a k-nearest-neighbor query.
func NearestArgs(k int, excludeII bool) QueryArgs {
	a := NewQueryArgs()
	a.Mode = ModeNearest
	a.NumNeighbors = k
	a.ExcludeII = excludeII
	return a
}

// infer fills in the mode from the set arguments when it is ModeNone.
func (a *QueryArgs) infer() {
	if a.Mode != ModeNone {
		return
	}
	if a.NumNeighbors != DefaultNumNeighbors {
		a.Mode = ModeNearest
	} else if a.RMax != DefaultRMax {
		a.Mode = ModeBall
	}
}

// validate infers the mode and checks the argument combination.
func (a *QueryArgs) validate() error {
	a.infer()
	switch a.Mode {
	case ModeBall:
		if a.RMax < 0 {
			return fmt.Errorf("%w: r_max must be set for ball queries", ErrInvalidQueryArgs)
		}
	case ModeNearest:
		if a.NumNeighbors < 1 {
			return fmt.Errorf("%w: num_neighbors must be set for nearest queries", ErrInvalidQueryArgs)
		}
		if a.Scale <= 1 {
			return fmt.Errorf("%w: scale must be > 1", ErrInvalidQueryArgs)
		}
	default:
		return fmt.Errorf("%w: mode could not be inferred", ErrInvalidQueryArgs)
	}
	return nil
}

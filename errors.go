package periq

import (
	"errors"

	"github.com/periq/periq/nlist"
)

var (
	// ErrBoxTooSmall is returned when a cutoff is at least half the shortest
	// periodic plane distance, so a single image layer cannot guarantee
	// minimum-image correctness.
	ErrBoxTooSmall = errors.New("cutoff is too large for this box")

	// ErrInvalidQueryArgs is returned when a query mode cannot be inferred
	// or a required parameter is missing.
	ErrInvalidQueryArgs = errors.New("invalid query arguments")

	// ErrUnsupported is returned when an operation is not implemented for
	// the chosen backend, e.g. querying a RawPoints handle.
	ErrUnsupported = errors.New("operation not supported by this backend")

	// ErrUnsorted is returned by bond-list construction on non-monotone
	// query indices. It aliases the nlist sentinel.
	ErrUnsorted = nlist.ErrUnsorted
)

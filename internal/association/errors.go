package association

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports an invalid associator option. It is returned
	// at construction time.
	ErrConfiguration = errors.New("association: invalid configuration")

	// ErrInputContract reports a malformed query input: an unset view, a nil
	// element reference, a duplicate index or a missing event context.
	ErrInputContract = errors.New("association: input contract violation")

	// ErrSingularCovariance reports a track covariance that cannot be
	// inverted. It only ever affects the pairs involving that track.
	ErrSingularCovariance = errors.New("association: singular covariance matrix")

	// ErrCrossEventCache reports an identifier resolver used with an event
	// other than the one it was built for.
	ErrCrossEventCache = errors.New("association: identifier cache used across events")
)

// PairError is a recoverable failure for a single (track, particle) pair.
// It is reported through Diagnostics and never aborts a query.
type PairError struct {
	Track    int
	Particle int
	Err      error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("track %d, particle %d: %v", e.Track, e.Particle, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }

func contractError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInputContract, fmt.Sprintf(format, args...))
}

package authority

import "errors"

var (
	// ErrDepthExceeded names account-authority recursion past
	// MaxRecursionDepth. Satisfied does not return it: it reports an
	// authority reached only past that depth as unsatisfied, failing closed
	// on recursive authority checks.
	ErrDepthExceeded = errors.New("authority: recursion depth exceeded")
)

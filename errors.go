package texsource

import "errors"

// Error kinds. Call sites wrap these with context, so compare with errors.Is.
var (
	// ErrConfiguration reports an invalid argument or setting: a zero
	// scale, a non-positive size, a missing kernel, an unknown option.
	ErrConfiguration = errors.New("texsource: invalid configuration")

	// ErrUnavailable reports that a feed cannot be produced: no matching
	// camera, no video paths, no AR platform, or no frame yet.
	ErrUnavailable = errors.New("texsource: source unavailable")

	// ErrLifetime reports use of a released resource or an overlapping
	// call on a resource that does not support it.
	ErrLifetime = errors.New("texsource: resource lifetime violation")
)

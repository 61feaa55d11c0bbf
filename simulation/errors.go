package simulation

import "github.com/pkg/errors"

var (
	// ErrInvalidSource is returned when a broadcast names a node that does
	// not exist.
	ErrInvalidSource = errors.New("invalid broadcast source")

	// ErrInvalidTTL is returned when the initial hop budget is below one.
	ErrInvalidTTL = errors.New("initial ttl must be at least 1")
)

package topology

import "github.com/pkg/errors"

var (
	// ErrInvalidParameters is returned when the node count, degree cap or an
	// explicit edge list cannot describe a graph.
	ErrInvalidParameters = errors.New("invalid topology parameters")

	// ErrGenerationFailed is returned when the random generator cannot place
	// the required number of edges within its attempt budget.
	ErrGenerationFailed = errors.New("topology generation failed")
)

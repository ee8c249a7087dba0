package trajopt

import "github.com/pkg/errors"

// ErrLinkNotFound is returned when a link name cannot be resolved through the adjacency map.
var ErrLinkNotFound = errors.New("link not found")

// NewDimensionMismatchError returns an error indicating that a vector does not have the expected length.
func NewDimensionMismatchError(what string, actual, expected int) error {
	return errors.Errorf("%s has length %d, expected %d", what, actual, expected)
}

package pgraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pgraph/model"
)

var (
	// ErrDuplicateKey is returned when a node id or explicit index is taken.
	ErrDuplicateKey = model.ErrDuplicateKey
	// ErrInvalidEdgeType is returned for a mismatched or unsupported edge type.
	ErrInvalidEdgeType = model.ErrInvalidEdgeType
	// ErrInvalidDirection is returned for an unsupported direction value.
	ErrInvalidDirection = model.ErrInvalidDirection
	// ErrIndexOutOfRange is returned for negative indices or indices above model.MaxIndex.
	ErrIndexOutOfRange = model.ErrIndexOutOfRange
	// ErrNotFound is returned when a node or edge does not exist.
	ErrNotFound = model.ErrNotFound
	// ErrUnsupported is returned for operations a type does not support.
	ErrUnsupported = model.ErrUnsupported
	// ErrTypeConflict is returned when a type is re-registered differently.
	ErrTypeConflict = model.ErrTypeConflict
	// ErrRegistryFull is returned when no further node or edge type fits.
	ErrRegistryFull = model.ErrRegistryFull

	// ErrUnknownType is returned when a type was not registered with the graph.
	ErrUnknownType = errors.New("type not registered with graph")
	// ErrBuilt is returned when a Builder is used after Build.
	ErrBuilt = errors.New("builder already built")
	// ErrClosed is returned by operations on a closed graph.
	ErrClosed = errors.New("graph closed")
)

// GraphError wraps a dump, restore, import or export failure.
//
// The original underlying error can be accessed via errors.Unwrap.
type GraphError struct {
	Op  string
	Err error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
}

func (e *GraphError) Unwrap() error { return e.Err }

func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GraphError
	if errors.As(err, &ge) {
		return err
	}
	return &GraphError{Op: op, Err: err}
}

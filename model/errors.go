package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when an explicit-index insert collides with a
	// live entry. Only the replay and restore paths insert at explicit indices.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidEdgeType is returned when an EdgeID or edge type does not match
	// the repository or operation it was passed to.
	ErrInvalidEdgeType = errors.New("invalid edge type")

	// ErrInvalidDirection is returned for Direction values outside the enum.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrIndexOutOfRange is returned for negative node or edge indices and
	// for indices above MaxIndex.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotFound is returned when a node or edge does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned for operations the edge type cannot perform.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrTypeConflict is returned when a type is registered twice with
	// different attributes.
	ErrTypeConflict = errors.New("type conflict")

	// ErrRegistryFull is returned when a registry already holds
	// math.MaxUint16 types of a kind.
	ErrRegistryFull = errors.New("type registry full")
)

// ErrEdgeTypeMismatch indicates an EdgeID of one type was passed where another
// type was expected.
type ErrEdgeTypeMismatch struct {
	Expected string
	Actual   string
}

func (e *ErrEdgeTypeMismatch) Error() string {
	return fmt.Sprintf("invalid edge type: expected %q, got %q", e.Expected, e.Actual)
}

// Is reports ErrInvalidEdgeType.
func (e *ErrEdgeTypeMismatch) Is(target error) bool { return target == ErrInvalidEdgeType }

// ErrUnweightedEdgeType indicates a weight operation on an unweighted type.
// It matches both ErrInvalidEdgeType and ErrUnsupported.
type ErrUnweightedEdgeType struct {
	Type string
}

func (e *ErrUnweightedEdgeType) Error() string {
	return fmt.Sprintf("edge type %q is not weighted", e.Type)
}

// Is reports ErrInvalidEdgeType and ErrUnsupported.
func (e *ErrUnweightedEdgeType) Is(target error) bool {
	return target == ErrInvalidEdgeType || target == ErrUnsupported
}

// ErrDuplicateIndex indicates an explicit index is already occupied.
type ErrDuplicateIndex struct {
	Kind  string // "node" or "edge"
	Index int32
}

func (e *ErrDuplicateIndex) Error() string {
	return fmt.Sprintf("duplicate key: %s index %d is occupied", e.Kind, e.Index)
}

// Is reports ErrDuplicateKey.
func (e *ErrDuplicateIndex) Is(target error) bool { return target == ErrDuplicateKey }

// ErrNegativeIndex indicates a negative index was supplied.
type ErrNegativeIndex struct {
	Index int32
}

func (e *ErrNegativeIndex) Error() string {
	return fmt.Sprintf("index out of range: %d", e.Index)
}

// Is reports ErrIndexOutOfRange.
func (e *ErrNegativeIndex) Is(target error) bool { return target == ErrIndexOutOfRange }

// CheckIndex returns ErrNegativeIndex when index < 0 and ErrIndexOutOfRange
// when index > MaxIndex.
func CheckIndex(index int32) error {
	if index < 0 {
		return &ErrNegativeIndex{Index: index}
	}
	if index > MaxIndex {
		return fmt.Errorf("%w: %d exceeds %d", ErrIndexOutOfRange, index, MaxIndex)
	}
	return nil
}

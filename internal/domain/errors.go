package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a transaction is not found in the store
	ErrNotFound = errors.New("transaction not found")

	// ErrCycleDetected is returned when a link would make a chain revisit a node
	ErrCycleDetected = errors.New("link would create a cycle")

	// ErrAlreadyLinked is returned when the child already has a parent
	// (the lineage model is a single-parent tree, not a general DAG)
	ErrAlreadyLinked = errors.New("transaction already has a parent")

	// ErrCorruptChain is returned when chain traversal exceeds the depth bound
	ErrCorruptChain = errors.New("chain traversal exceeded maximum depth")

	// ErrUpstreamUnavailable is returned when a connector cannot reach its provider
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
)

// UnrecognizedTypeError is returned by a normalizer when a source action
// code has no canonical mapping. The record is skipped and reported; the
// batch continues.
type UnrecognizedTypeError struct {
	Source Source
	Code   string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized %s transaction type %q", e.Source, e.Code)
}

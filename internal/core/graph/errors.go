// Package graph defines domain-specific errors.
package graph

import "errors"

// Rejection taxonomy. Mutations that would break a structural invariant are
// rejected at the point of mutation and never leave the graph inconsistent.
var (
	// ErrConstraintViolation rejects an edge that would violate a node's
	// input constraints, e.g. a second edge into a bandpower instance.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrLimitExceeded rejects instance creation past the graph's cap.
	ErrLimitExceeded = errors.New("instance limit exceeded")
	// ErrInvariantViolation rejects a removal that would break a structural
	// invariant, e.g. deleting the last plot instance.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Node errors
var (
	ErrInvalidNodeID      = errors.New("invalid node ID")
	ErrInvalidNodeKind    = errors.New("invalid node kind")
	ErrConfigKindMismatch = errors.New("config kind does not match node kind")
	ErrNodeNotFound       = errors.New("node not found")
	ErrDuplicateNode      = errors.New("duplicate node ID")
	ErrInstanceNotFound   = errors.New("instance not found")
	ErrNotMultiInstance   = errors.New("node kind is single-instance")
)

// Edge errors
var (
	ErrInvalidEdgeSource = errors.New("invalid edge source")
	ErrInvalidEdgeTarget = errors.New("invalid edge target")
	ErrSelfLoop          = errors.New("self-loops are not allowed")
)

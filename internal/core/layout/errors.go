// Package layout defines domain-specific errors.
package layout

import "errors"

var (
	ErrInvalidSnapshotID   = errors.New("invalid snapshot ID")
	ErrInvalidSnapshotName = errors.New("invalid snapshot name")
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrEmptyDocument       = errors.New("layout document is empty")
)

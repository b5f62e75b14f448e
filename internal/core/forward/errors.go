// Package forward defines domain-specific errors.
package forward

import "errors"

var (
	// ErrNilProvider rejects starting an engine without a sample/publish
	// provider.
	ErrNilProvider = errors.New("forwarding provider is nil")
)

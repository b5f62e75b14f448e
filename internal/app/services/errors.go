package services

import "errors"

// ErrNoStore rejects snapshot operations on a service built without a store.
var ErrNoStore = errors.New("no layout store configured")

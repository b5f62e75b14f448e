package dto

import "errors"

var (
	// ErrInvalidGrid rejects a play request whose grid cannot host any tiles.
	ErrInvalidGrid = errors.New("invalid presentation grid")
	// ErrNotPlaying rejects a stop request when no session is running.
	ErrNotPlaying = errors.New("no play session running")
)

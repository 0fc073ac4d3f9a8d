package player

import "errors"

var (
	// ErrNotInitialized is returned by every operation on a player that was
	// not built with New.
	ErrNotInitialized = errors.New("player not initialized")
	// ErrInvalidState means the player is not accepting audio.
	ErrInvalidState = errors.New("player not accepting audio in current state")
	// ErrIDMismatch means the audio belongs to a different playback.
	ErrIDMismatch = errors.New("playback id does not match current playback")
	// ErrInvalidID means the playback id is too long.
	ErrInvalidID    = errors.New("invalid playback id")
	ErrNoSink       = errors.New("no output sink configured")
	ErrUnknownAlert = errors.New("unknown alert")
	ErrRunning      = errors.New("player loop already running")
)

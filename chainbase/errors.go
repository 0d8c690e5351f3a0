package chainbase

import "errors"

var (
	// ErrNotFound is returned by Get when no record exists for the requested key.
	ErrNotFound = errors.New("chainbase: object not found")
	// ErrDuplicateKey is returned when a Create or Modify would violate a
	// unique secondary index.
	ErrDuplicateKey = errors.New("chainbase: duplicate key")
	// ErrNoSession is returned by Create/Modify/Remove when no undo session
	// is open; every mutation must happen inside one (spec §3 "Lifecycle
	// rules").
	ErrNoSession = errors.New("chainbase: no active undo session")
	// ErrSessionMismatch is returned by Undo/Commit/Squash when called on a
	// session that is not the topmost one on its database's stack.
	ErrSessionMismatch = errors.New("chainbase: session is not the topmost session")
	// ErrUndoUnderflow names an undo with no session left to unwind. No
	// function in this package returns it: UndoAll on an empty stack returns
	// nil, and Undo on a closed or non-topmost session returns
	// ErrSessionMismatch.
	ErrUndoUnderflow = errors.New("chainbase: no session to undo")
)

package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup has no result.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write lost against a
	// concurrent writer.
	ErrConflict = errors.New("stored fingerprint changed since it was read")
	// ErrLockHeld is returned when another pass holds the pass lock.
	ErrLockHeld = errors.New("lock held by another pass")
)

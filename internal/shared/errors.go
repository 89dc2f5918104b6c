package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrLockNotAcquired occurs when a per-account critical section is busy.
	ErrLockNotAcquired = errors.New("account lock not acquired")
)

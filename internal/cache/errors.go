package cache

import "errors"

var (
	// ErrCorrupt indicates a cache file that exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt cache file")

	// ErrLocked indicates the cache file lock could not be acquired in time.
	ErrLocked = errors.New("cache file is locked by another session")

	// ErrVectorLengthMismatch indicates an entry whose vectors disagree with
	// its paragraphs or with each other.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")
)

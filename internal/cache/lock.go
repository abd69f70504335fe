package cache

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockPollInterval = 100 * time.Millisecond

// acquireLock takes the advisory lock guarding the cache file at path.
// Readers share the lock; a writer holds it exclusively.
func acquireLock(path string, shared bool, timeout time.Duration) (func(), error) {
	lockPath := path + ".lock"
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		var (
			locked bool
			err    error
		)
		if shared {
			locked, err = l.TryRLock()
		} else {
			locked, err = l.TryLock()
		}
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire cache lock %s: %w", lockPath, err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
		}
		time.Sleep(lockPollInterval)
	}
}

package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output root while a run holds it.
const LockFileName = ".brainbatch.lock"

// acquireLock takes a non-blocking exclusive lock on the output root so two
// runs never write the same targets at once.
func acquireLock(outputRoot string) (*flock.Flock, error) {
	path := filepath.Join(outputRoot, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return lock, nil
}

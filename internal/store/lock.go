package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"timedtext/internal/faults"
)

// Lock takes the per-document lock file without blocking. It fails with
// faults.ErrConcurrentOperation when another holder has it. The returned
// func releases the lock.
func (s *Store) Lock(docID string) (func() error, error) {
	if _, err := uuid.Parse(docID); err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "store", "lock", "invalid document id "+docID, err)
	}
	if err := os.MkdirAll(s.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(s.lockDir, docID+".lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrConcurrentOperation, "store", "lock", "document "+docID+" is locked by another process", nil)
	}
	return lock.Unlock, nil
}

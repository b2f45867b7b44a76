// Package lockfile coordinates document writers across processes through a
// sibling ".lock" file next to the document.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/maruel/ksid"
)

// session identifies this process in lock owner records.
var session = ksid.NewID()

// Owner describes the writer that last held a document's lock. The record
// is advisory; the flock on the lock file is what excludes writers.
type Owner struct {
	Session    ksid.ID   `json:"session"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Handle is a held lock. Release it when the write is done.
type Handle struct {
	fl *flock.Flock
}

// lockPath returns the lock file for a document path.
func lockPath(path string) string {
	return path + ".lock"
}

// Acquire takes the exclusive lock for the document at path, blocking until
// the current holder releases it.
func Acquire(path string) (*Handle, error) {
	fl := flock.New(lockPath(path))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire %s: %w", fl.Path(), err)
	}
	owner := Owner{Session: session, PID: os.Getpid(), AcquiredAt: time.Now().UTC()}
	if data, err := json.Marshal(&owner); err == nil {
		_ = os.WriteFile(fl.Path(), data, 0o644)
	}
	return &Handle{fl: fl}, nil
}

// Release drops the lock. The lock file stays behind; removing it would let
// a waiter and a newcomer lock different inodes at once.
func (h *Handle) Release() error {
	if err := h.fl.Unlock(); err != nil {
		return fmt.Errorf("release %s: %w", h.fl.Path(), err)
	}
	return nil
}

// ReadOwner reads the owner record for the document at path. It reports the
// most recent holder whether or not the lock is still held.
func ReadOwner(path string) (Owner, error) {
	data, err := os.ReadFile(lockPath(path))
	if err != nil {
		return Owner{}, err
	}
	var o Owner
	if err := json.Unmarshal(data, &o); err != nil {
		return Owner{}, fmt.Errorf("parse %s: %w", lockPath(path), err)
	}
	return o, nil
}

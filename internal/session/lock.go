package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockFileName = "tunlease.lock"

// lockRecord identifies the invocation holding the advisory session lock.
type lockRecord struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// acquireLock takes the advisory per-machine lock that serializes connect and
// disconnect transitions. A leftover lock from a dead process is reclaimed.
// The returned release function removes the lock file.
func acquireLock(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("error creating lock directory: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			record := lockRecord{PID: os.Getpid(), AcquiredAt: time.Now()}
			encodeErr := json.NewEncoder(f).Encode(record)
			f.Close()
			if encodeErr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("error writing lock file: %w", encodeErr)
			}
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("error creating lock file: %w", err)
		}
		holder, readErr := readLock(path)
		if readErr == nil && processAlive(holder.PID) {
			return nil, fmt.Errorf("%w (pid %d since %s)", ErrLocked, holder.PID, holder.AcquiredAt.Format(time.RFC3339))
		}
		// stale or unreadable lock, reclaim it
		os.Remove(path)
	}
	return nil, ErrLocked
}

func readLock(path string) (lockRecord, error) {
	var record lockRecord
	raw, err := os.ReadFile(path)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, err
	}
	if record.PID <= 0 {
		return record, fmt.Errorf("lock file has no pid")
	}
	return record, nil
}

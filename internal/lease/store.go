package lease

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoLease is returned by Load when no lease record has been persisted.
var ErrNoLease = errors.New("no lease record found")

const (
	epochFileName = "tunlease-lease.epoch"
	humanFileName = "tunlease-lease.txt"

	// HumanFormat is the layout of the human-readable expiry file.
	HumanFormat = "Mon Jan 2 15:04:05 MST 2006"
)

// Record is the persisted lease-expiry bookkeeping for the active session.
// It is owned by the session controller; status queries only read it.
type Record struct {
	ExpiryEpoch int64
	ExpiryHuman string
}

// Remaining returns the whole minutes left on the lease, clamped at zero.
func (r Record) Remaining(now time.Time) int64 {
	left := (r.ExpiryEpoch - now.Unix()) / 60
	if left < 0 {
		return 0
	}
	return left
}

// Store persists the lease record as two sibling files in a shared scratch
// directory. Writes are plain overwrites: no locking, no atomic replace,
// last writer wins. That matches the one-session-per-machine model.
type Store struct {
	// Dir is the scratch directory holding both files. Empty means the
	// system temp directory.
	Dir string
}

func (s *Store) dir() string {
	if s.Dir != "" {
		return s.Dir
	}
	return os.TempDir()
}

// EpochPath returns the path of the integer epoch-seconds file.
func (s *Store) EpochPath() string {
	return filepath.Join(s.dir(), epochFileName)
}

// HumanPath returns the path of the human-readable expiry file.
func (s *Store) HumanPath() string {
	return filepath.Join(s.dir(), humanFileName)
}

// Save persists both representations of the expiry.
func (s *Store) Save(record Record) error {
	if err := os.WriteFile(s.EpochPath(), []byte(strconv.FormatInt(record.ExpiryEpoch, 10)+"\n"), 0600); err != nil {
		return fmt.Errorf("error writing lease epoch file: %w", err)
	}
	if err := os.WriteFile(s.HumanPath(), []byte(record.ExpiryHuman+"\n"), 0600); err != nil {
		return fmt.Errorf("error writing lease timestamp file: %w", err)
	}
	return nil
}

// Load reads the persisted record back. It returns ErrNoLease when the epoch
// file does not exist. A readable epoch with a missing human file is still
// returned, with the human representation derived from the epoch.
func (s *Store) Load() (Record, error) {
	raw, err := os.ReadFile(s.EpochPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNoLease
		}
		return Record{}, fmt.Errorf("error reading lease epoch file: %w", err)
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("error parsing lease epoch file: %w", err)
	}
	record := Record{ExpiryEpoch: epoch}
	human, err := os.ReadFile(s.HumanPath())
	if err == nil {
		record.ExpiryHuman = strings.TrimSpace(string(human))
	} else {
		record.ExpiryHuman = time.Unix(epoch, 0).Format(HumanFormat)
	}
	return record, nil
}

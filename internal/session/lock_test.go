package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockContention(t *testing.T) {
	dir := t.TempDir()

	release, err := acquireLock(dir)
	require.NoError(t, err)

	_, err = acquireLock(dir)
	assert.ErrorIs(t, err, ErrLocked, "a live holder must block a second acquisition")

	release()

	release2, err := acquireLock(dir)
	require.NoError(t, err, "the lock must be reacquirable after release")
	release2()
}

func TestLockReclaimsStaleHolder(t *testing.T) {
	dir := t.TempDir()
	// a pid well above any real pid space, so the holder is provably dead
	stale := lockRecord{PID: 1 << 30, AcquiredAt: time.Now().Add(-time.Hour)}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), raw, 0600))

	release, err := acquireLock(dir)
	require.NoError(t, err, "a lock held by a dead process must be reclaimed")
	release()
}

func TestLockReclaimsGarbageFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("not json"), 0600))

	release, err := acquireLock(dir)
	require.NoError(t, err)
	release()
}

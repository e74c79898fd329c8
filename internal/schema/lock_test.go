package schema

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	unlock, err := Lock(ctx, dir, LockOptions{})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, LockFile))
	require.NoError(t, err, "lock file should exist while held")

	_, err = Lock(ctx, dir, LockOptions{Timeout: 100 * time.Millisecond})
	require.ErrorIs(t, err, core.ErrLocked)

	require.NoError(t, unlock())
	_, err = os.Stat(filepath.Join(dir, LockFile))
	assert.True(t, os.IsNotExist(err), "lock file should be removed on unlock")
	assert.NoError(t, unlock(), "unlock is idempotent")

	unlock, err = Lock(ctx, dir, LockOptions{})
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestLock_ForeignLockFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("other-process\n"), 0o600))

	_, err := Lock(context.Background(), dir, LockOptions{Timeout: 150 * time.Millisecond})
	require.ErrorIs(t, err, core.ErrLocked)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	unlock, err := Lock(context.Background(), dir, LockOptions{Timeout: time.Second, StaleAfter: time.Minute})
	require.NoError(t, err, "stale lock files are reclaimed")
	require.NoError(t, unlock())
}

func TestLock_SerializesGoroutines(t *testing.T) {
	dir := t.TempDir()
	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := Lock(context.Background(), dir, LockOptions{Timeout: 10 * time.Second})
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

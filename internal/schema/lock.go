package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/sethvargo/go-retry"
)

// LockFile is the lock file path relative to the project directory.
const LockFile = ".analytics-agent/load.lock"

// LockOptions tune lock acquisition.
type LockOptions struct {
	// Timeout bounds the whole acquisition. Defaults to 30s.
	Timeout time.Duration
	// StaleAfter is the age after which an abandoned lock file is removed.
	// Defaults to 10m.
	StaleAfter time.Duration
}

// Unlock releases a project lock.
type Unlock func() error

var (
	localMu    sync.Mutex
	localLocks = map[string]chan struct{}{}
)

func localLock(key string) chan struct{} {
	localMu.Lock()
	defer localMu.Unlock()
	ch, ok := localLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		localLocks[key] = ch
	}
	return ch
}

// Lock serializes load operations on projectDir. It excludes other
// goroutines through an in-process semaphore and other processes through an
// exclusively created lock file, retried with capped exponential backoff.
// It returns core.ErrLocked when the lock cannot be taken before the timeout.
func Lock(ctx context.Context, projectDir string, opts LockOptions) (Unlock, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 10 * time.Minute
	}

	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	sem := localLock(abs)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", core.ErrLocked, abs)
	}

	path := filepath.Join(abs, LockFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		<-sem
		return nil, &core.IOError{Path: path, Err: err}
	}

	token := uuid.NewString()
	backoff := retry.WithCappedDuration(time.Second, retry.NewExponential(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(_ context.Context) error {
		err := createLockFile(path, token)
		if errors.Is(err, fs.ErrExist) {
			removeIfStale(path, opts.StaleAfter)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		<-sem
		if errors.Is(err, fs.ErrExist) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", core.ErrLocked, abs)
		}
		return nil, &core.IOError{Path: path, Err: err}
	}

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			defer func() { <-sem }()
			data, readErr := os.ReadFile(path)
			if readErr != nil || strings.TrimSpace(string(data)) != token {
				err = fmt.Errorf("lock file %s no longer owned by this process", path)
				return
			}
			err = os.Remove(path)
		})
		return err
	}, nil
}

func createLockFile(path, token string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(token + "\n")
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(path)
		return werr
	}
	return cerr
}

func removeIfStale(path string, staleAfter time.Duration) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) > staleAfter {
		_ = os.Remove(path)
	}
}

// Package filelock provides a cross-process advisory lock built on
// exclusive file creation. It serializes concurrent populations of the same
// runtime cache entry by separate jbundle processes.
package filelock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	// Holders refresh the lock with KeepAlive, so only a crashed holder's lock ages past it.
	StaleLockThreshold = 30 * time.Minute

	// DefaultPollInterval is how often a waiting Acquire retries.
	DefaultPollInterval = 200 * time.Millisecond
)

var (
	ErrLockExists = errors.New("lock held by another process")
)

// Lock represents a held lock file.
type Lock struct {
	path  string
	token string
}

// Options tune Acquire. Zero values select the defaults.
type Options struct {
	PollInterval   time.Duration
	StaleThreshold time.Duration
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire makes a single attempt to take dir/name.lock.
// It returns ErrLockExists when another live holder owns it.
// A lock older than the stale threshold is removed and taken over.
func TryAcquire(dir, name string, opts Options) (*Lock, error) {
	opts = opts.withDefaults()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, name+".lock")

	lock, err := create(lockPath)
	if err == nil {
		return lock, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	// Lock exists - check if it's stale
	if stale, _ := isLockStale(lockPath, opts.StaleThreshold); !stale {
		return nil, ErrLockExists
	}

	// Remove stale lock and retry once
	_ = os.Remove(lockPath)
	lock, err = create(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLockExists
		}
		return nil, err
	}
	return lock, nil
}

// Acquire waits until dir/name.lock can be taken or ctx ends.
func Acquire(ctx context.Context, dir, name string, opts Options) (*Lock, error) {
	opts = opts.withDefaults()

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		lock, err := TryAcquire(dir, name, opts)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockExists) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release removes the lock file if this holder still owns it.
// Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lock file: %w", err)
	}

	// Someone took the lock over as stale; it is no longer ours to remove.
	if !bytes.Contains(data, []byte("owner="+l.token+"\n")) {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Refresh bumps the lock file's modification time so waiters keep treating it as live.
func (l *Lock) Refresh() error {
	if l == nil || l.path == "" {
		return nil
	}
	return touch(l.path)
}

func touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("refresh lock file: %w", err)
	}
	return nil
}

// KeepAlive refreshes the lock every interval until the returned stop
// function is called. stop waits for the refresher to exit and must be
// called before Release.
func (l *Lock) KeepAlive(interval time.Duration) (stop func()) {
	path := l.path
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if path != "" {
					_ = touch(path)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// RefreshInterval is how often a holder should refresh its lock: a third of
// the stale threshold.
func (o Options) RefreshInterval() time.Duration {
	return o.withDefaults().StaleThreshold / 3
}

// create makes the lock file with O_CREATE|O_EXCL and writes holder metadata.
func create(lockPath string) (*Lock, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	defer file.Close()

	token := uuid.NewString()

	// Write lock metadata (owner token, PID and timestamp)
	lockData := fmt.Sprintf("owner=%s\npid=%d\ntimestamp=%s\n", token, os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, token: token}, nil
}

// isLockStale checks if a lock file is older than threshold.
func isLockStale(lockPath string, threshold time.Duration) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > threshold, nil
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StaleThreshold <= 0 {
		o.StaleThreshold = StaleLockThreshold
	}
	return o
}

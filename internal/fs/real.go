package fs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// Real implements [FS] using the real filesystem.
//
// All methods are passthroughs to the [os] package with identical
// behavior and error semantics. The exceptions are [Real.Exists] which
// wraps [os.Stat], [Real.WriteFileAtomic] which uses atomic file writes,
// and [Real.Lock] which provides flock-based locking.
type Real struct {
	lockTimeout time.Duration
}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{lockTimeout: defaultLockTimeout}
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes through a temp file in the same directory, then renames.
// perm is applied after the rename.
func (r *Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	return os.Chmod(path, perm)
}

// A passthrough wrapper for [os.ReadDir].
func (r *Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// A passthrough wrapper for [os.MkdirAll].
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Exists checks if a file exists using [os.Stat].
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// A passthrough wrapper for [os.Remove].
func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// --- Locking ---

const (
	defaultLockTimeout = 2 * time.Second
	lockPollInterval   = 10 * time.Millisecond
	lockPerms          = 0o600
)

// ErrLockTimeout is returned when a lock is not acquired within the timeout.
var ErrLockTimeout = errors.New("lock timeout")

// realLock holds an exclusive flock. The lock file itself is left in place so
// every process locks the same inode.
type realLock struct {
	file *os.File
}

func (l *realLock) Close() error {
	if l.file == nil {
		return nil
	}

	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil

	return err
}

// Lock polls a non-blocking flock until it succeeds or the timeout expires.
func (r *Real) Lock(path string) (io.Closer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockPerms)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(r.lockTimeout)

	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &realLock{file: file}, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = file.Close()

			return nil, &os.PathError{Op: "flock", Path: path, Err: err}
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, &os.PathError{Op: "flock", Path: path, Err: ErrLockTimeout}
		}

		time.Sleep(lockPollInterval)
	}
}

// Compile-time interface check.
var _ FS = (*Real)(nil)

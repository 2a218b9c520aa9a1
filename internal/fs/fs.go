// Package fs provides the filesystem abstraction used by the file-backed store.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the store needs
//   - [Real]: production implementation using [os] and atomic writes
//   - [Faulty]: testing wrapper that injects failures into selected operations
//
// Example usage:
//
//	fsys := fs.NewReal()
//	data, err := fsys.ReadFile("default.json")
//	if err != nil {
//	    return err
//	}
package fs

import (
	"io"
	"os"
)

// FS defines filesystem operations for reading, writing, and managing unit files.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename to prevent partial writes on crash.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name. See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Lock acquires an exclusive advisory lock on path, creating it if needed.
	// Blocks until the lock is acquired or the lock timeout expires.
	// Call Close on the result to release the lock.
	Lock(path string) (io.Closer, error)
}

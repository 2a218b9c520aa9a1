package fs

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the operation, path and underlying message.
func (e *InjectedError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Faulty].
// Returns false if err is nil.
func IsInjected(err error) bool {
	if err == nil {
		return false
	}

	var injected *InjectedError

	return errors.As(err, &injected)
}

// ErrInjected is the default error returned by [Faulty] rules.
var ErrInjected = errors.New("injected fault")

// Op names an [FS] operation that [Faulty] can fail.
type Op string

// Operations that can be failed.
const (
	OpReadFile  Op = "read"
	OpWrite     Op = "write"
	OpReadDir   Op = "readdir"
	OpMkdirAll  Op = "mkdir"
	OpRemove    Op = "remove"
	OpLock      Op = "lock"
	OpExistence Op = "exists"
)

// Faulty wraps an [FS] and fails operations whose path contains a configured
// substring. Rules are checked in the order they were added.
//
// Faulty is safe for concurrent use.
type Faulty struct {
	inner FS

	mu    sync.Mutex
	rules []faultRule
	calls map[Op]int
}

type faultRule struct {
	op        Op
	substring string
	err       error
	remaining int // <0 means unlimited
}

// NewFaulty wraps inner. With no rules it behaves exactly like inner.
func NewFaulty(inner FS) *Faulty {
	return &Faulty{inner: inner, calls: make(map[Op]int)}
}

// Fail makes every op on a path containing substring return err (or [ErrInjected] if nil).
func (f *Faulty) Fail(op Op, substring string, err error) *Faulty {
	return f.FailN(op, substring, err, -1)
}

// FailN is like [Faulty.Fail] but only fails the first n matching calls.
func (f *Faulty) FailN(op Op, substring string, err error, n int) *Faulty {
	if err == nil {
		err = ErrInjected
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = append(f.rules, faultRule{op: op, substring: substring, err: err, remaining: n})

	return f
}

// Reset removes all rules and call counts.
func (f *Faulty) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = nil
	f.calls = make(map[Op]int)
}

// Calls returns how many times op was invoked, failed or not.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	for i := range f.rules {
		rule := &f.rules[i]
		if rule.op != op || rule.remaining == 0 || !strings.Contains(path, rule.substring) {
			continue
		}

		if rule.remaining > 0 {
			rule.remaining--
		}

		return &InjectedError{Op: string(op), Path: path, Err: rule.err}
	}

	return nil
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWrite, path); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}

	return f.inner.ReadDir(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpExistence, path); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

func (f *Faulty) Lock(path string) (io.Closer, error) {
	if err := f.check(OpLock, path); err != nil {
		return nil, err
	}

	return f.inner.Lock(path)
}

// Compile-time interface check.
var _ FS = (*Faulty)(nil)

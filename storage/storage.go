package storage

//go:generate mockgen -source=storage.go -destination=mock/storage_mock.go -package=mock

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store is closed")

// Reader is the read half of a transaction.
//
// Get reports ok=false when the key is absent. Range visits every key that
// starts with prefix in ascending byte order; an error returned by fn stops
// the scan and is returned unchanged. Slices handed out by either method are
// owned by the caller.
type Reader interface {
	Get(key []byte) (value []byte, ok bool, err error)
	Range(prefix []byte, fn func(key, value []byte) error) error
}

// ReadWriter is a read-write transaction. Writes become visible to reads in
// the same transaction immediately and to other transactions only on commit.
type ReadWriter interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Store is a byte-string keyed substrate with all-or-nothing transactions.
//
// Update commits every write made by fn if fn returns nil and discards all
// of them otherwise. The error from fn is returned unchanged.
type Store interface {
	View(ctx context.Context, fn func(r Reader) error) error
	Update(ctx context.Context, fn func(rw ReadWriter) error) error
	Close() error
}

// Error is a failure of the substrate itself, as opposed to a domain error
// raised by code running inside a transaction.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap annotates err as a substrate failure of op. It returns nil for a nil
// err and leaves errors that already are storage errors untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorageError reports whether err is, or wraps, a substrate failure.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

package storage

import (
	"errors"
	"fmt"
	"io/fs"
)

// Code categorizes a storage failure.
type Code string

const (
	CodeNotFound      Code = "not_found"
	CodeAlreadyExists Code = "already_exists"
	CodeIO            Code = "io_error"
	CodeUnexpected    Code = "unexpected"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Code.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrIO            = errors.New("storage i/o failure")
	ErrUnexpected    = errors.New("unexpected storage state")
)

// Error is returned by every Store, Collection and LogStore operation.
type Error struct {
	Code Code
	// Op is the failing operation, e.g. "create" or "rotate".
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Key, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %q: %s", e.Op, e.Key, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrAlreadyExists:
		return e.Code == CodeAlreadyExists
	case ErrIO:
		return e.Code == CodeIO
	case ErrUnexpected:
		return e.Code == CodeUnexpected
	}
	return false
}

// CodeOf extracts the code of a storage error, or "" for foreign errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// wrap classifies an os-level error into the storage taxonomy.
func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	code := CodeIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = CodeNotFound
	case errors.Is(err, fs.ErrExist):
		code = CodeAlreadyExists
	}

	return &Error{Code: code, Op: op, Key: key, Err: err}
}

func unexpected(op, key, format string, args ...any) error {
	return &Error{Code: CodeUnexpected, Op: op, Key: key, Err: fmt.Errorf(format, args...)}
}

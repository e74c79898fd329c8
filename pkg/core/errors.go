package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTables is returned by the ask pipeline when nothing has been loaded.
	ErrNoTables = errors.New("no data loaded, run 'analytics-agent load' first")

	// ErrLocked is returned when a project lock cannot be acquired in time.
	ErrLocked = errors.New("project is locked by another load")
)

// IOError reports an unreadable file or store.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EmptyInputError reports a source with a header but zero data rows.
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s is empty or has no data rows", e.Path)
}

// NotFoundError reports a missing schema document.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema not found at %s", e.Path)
}

// CorruptSchemaError reports a schema document that cannot be decoded.
type CorruptSchemaError struct {
	Path string
	Err  error
}

func (e *CorruptSchemaError) Error() string {
	return fmt.Sprintf("corrupt schema at %s: %v", e.Path, e.Err)
}

func (e *CorruptSchemaError) Unwrap() error { return e.Err }

// ValidationError reports SQL rejected by the safety validator.
type ValidationError struct {
	SQL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return "unsafe SQL detected: " + e.Reason
}

// ExecutionError reports SQL the store refused to run.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("SQL error: %v\nquery: %s", e.Err, e.SQL)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TranslatorError reports a translator that could not produce a candidate query.
type TranslatorError struct {
	// Raw is the provider output, if any was received.
	Raw string
	Err error
}

func (e *TranslatorError) Error() string {
	return fmt.Sprintf("translator: %v", e.Err)
}

func (e *TranslatorError) Unwrap() error { return e.Err }

// ErrorKind classifies an error into the taxonomy used by the ask surface.
func ErrorKind(err error) string {
	var (
		ioErr      *IOError
		emptyErr   *EmptyInputError
		notFound   *NotFoundError
		corrupt    *CorruptSchemaError
		validation *ValidationError
		execErr    *ExecutionError
		transErr   *TranslatorError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &transErr):
		return "translator"
	case errors.As(err, &execErr):
		return "execution"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &corrupt):
		return "corrupt_schema"
	case errors.As(err, &emptyErr):
		return "empty_input"
	case errors.Is(err, ErrNoTables):
		return "no_tables"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "internal"
	}
}

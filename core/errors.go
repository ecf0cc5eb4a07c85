package core

import "fmt"

// ErrorKind classifies the errors the core surfaces to its callers. The
// HTTP front end maps each kind to a status code (several kinds share
// one); the RPC front end sends every error as an OpError frame whose
// message begins with the kind.
type ErrorKind string

const (
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindDuplicateID       ErrorKind = "duplicate_id"
	KindNotFound          ErrorKind = "not_found"
	KindAlreadyExists     ErrorKind = "already_exists"
	KindCapacityExceeded  ErrorKind = "capacity_exceeded"
	KindCorruptState      ErrorKind = "corrupt_state"
	KindIOFailure         ErrorKind = "io_failure"
)

// Error is the core's error type. Kind is stable and meant to be
// switched on by transport layers; Message is human-readable; Err, when
// set, is the underlying cause and is exposed via Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &Error{Kind: KindNotFound}) match any *Error
// with the same Kind, regardless of Message/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Sentinel values for errors.Is comparisons that don't need a message.
var (
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch, Message: "dimension mismatch"}
	ErrDuplicateID       = &Error{Kind: KindDuplicateID, Message: "duplicate id"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists, Message: "already exists"}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded, Message: "capacity exceeded"}
	ErrCorruptState      = &Error{Kind: KindCorruptState, Message: "corrupt state"}
	ErrIOFailure         = &Error{Kind: KindIOFailure, Message: "io failure"}
)

// NewDimensionMismatch reports a vector whose length does not match the
// collection's configured dimension.
func NewDimensionMismatch(got, want int) error {
	return newErr(KindDimensionMismatch, "got dimension %d, want %d", got, want)
}

// NewDuplicateID reports an insert whose external id is already in use.
func NewDuplicateID(id string) error {
	return newErr(KindDuplicateID, "id %q already exists", id)
}

// NewNotFound reports a missing collection or record.
func NewNotFound(what string) error {
	return newErr(KindNotFound, "%s not found", what)
}

// NewAlreadyExists reports a collection name already in use.
func NewAlreadyExists(name string) error {
	return newErr(KindAlreadyExists, "collection %q already exists", name)
}

// NewCapacityExceeded reports an index at its configured MaxElements.
func NewCapacityExceeded(max int) error {
	return newErr(KindCapacityExceeded, "capacity of %d elements exceeded", max)
}

// NewCorruptState wraps a decode failure encountered while loading
// persisted state.
func NewCorruptState(err error) error {
	return wrapErr(KindCorruptState, err, "failed to decode persisted state")
}

// NewIOFailure wraps a filesystem error encountered during save/load.
func NewIOFailure(err error) error {
	return wrapErr(KindIOFailure, err, "disk operation failed")
}

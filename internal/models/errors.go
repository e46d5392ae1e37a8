package models

import "errors"

// Domain errors. Callers match them with errors.Is and translate them at the
// transport boundary.
var (
	// ErrInvalidCollection is returned for a collection name outside the fixed set.
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrInvalidDocument is returned when a caller-supplied document or payload is malformed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrNotFound is returned when a document, draft or blob does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for missing, invalid or expired credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected is returned when an upload or a publish is refused.
	ErrRejected = errors.New("rejected")
	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage failure")
)

// StorageError is an I/O failure of the persistence layer.
//
// Op names the failed operation in terms safe to show a client. Err keeps the
// underlying cause, which may contain file system paths, for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) true.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Public returns a description without internal details.
func (e *StorageError) Public() string {
	return e.Op + " failed"
}

// PublicMessage returns a message for err that is safe to show a client.
func PublicMessage(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Public()
	}
	return err.Error()
}

package service

import (
	"Mini_Drive/model"
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorage         = errors.New("storage failure")
)

// AccessDeniedError is returned when the caller lacks the required level on a file.
// It matches ErrForbidden with errors.Is.
type AccessDeniedError struct {
	FileID           string
	Required         model.PermissionType
	CanRequestAccess bool
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s access required", e.Required)
}

func (e *AccessDeniedError) Unwrap() error { return ErrForbidden }

// OrphanError reports an upload whose object was stored but whose metadata row
// was not, and whose cleanup also failed. A reconcile task has been queued.
type OrphanError struct {
	StoragePath string
	Err         error
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("upload left an orphaned object pending cleanup: %v", e.Err)
}

func (e *OrphanError) Unwrap() error { return e.Err }

// PartialDeleteError reports a delete where the object was removed but the
// metadata commit failed. A reconcile task has been queued.
type PartialDeleteError struct {
	FileID      string
	StoragePath string
	Err         error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("file %s partially deleted: object removed, metadata kept: %v", e.FileID, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ValidationError represents a bad-request condition (HTTP 400).
// Fields maps request field names to what is wrong with them.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// fieldError builds a ValidationError for a single field.
func fieldError(field, msg string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("%s: %s", field, msg),
		Fields:  map[string]string{field: msg},
	}
}

// ConflictError represents a conflict condition (HTTP 409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ForbiddenError represents an authenticated principal acting outside their scope (HTTP 403).
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

var errForbidden = &ForbiddenError{Message: "Anda tidak memiliki izin untuk melakukan aksi ini"}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// constraint maps engine constraint violations that slipped past the
// pre-checks (concurrent writers) onto a ConflictError.
func constraint(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ConflictError{Message: msg}
	}
	return err
}

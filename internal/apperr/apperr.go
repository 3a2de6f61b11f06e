package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Category is the fixed error taxonomy of the service. Handlers map
// categories to HTTP statuses; everything else stays an opaque 500.
type Category string

const (
	Validation   Category = "validation"
	Duplicate    Category = "duplicate_data"
	NotFound     Category = "not_found"
	Permission   Category = "permission"
	Database     Category = "database"
	Network      Category = "network"
	AuditFailure Category = "audit_failure"
	System       Category = "system"
)

// Error carries a category, a user-facing message and the wrapped cause.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a categorized error with a user-facing message.
func New(cat Category, msg string) *Error {
	return &Error{Category: cat, Message: msg}
}

func Newf(cat Category, format string, args ...interface{}) *Error {
	return &Error{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a category and message to an underlying error.
func Wrap(cat Category, msg string, err error) *Error {
	return &Error{Category: cat, Message: msg, Err: err}
}

// CategoryOf extracts the category, defaulting to System for plain errors.
func CategoryOf(err error) Category {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return System
}

// MessageOf extracts the user-facing message, falling back to a generic
// one so raw infrastructure errors never leak to clients.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "An unexpected error occurred"
}

// HTTPStatus maps a category to the HTTP status handlers should return.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Duplicate:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Permission:
		return http.StatusForbidden
	case Network:
		return http.StatusBadGateway
	case Database, AuditFailure, System:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// FromMongo classifies a MongoDB driver error at the repository boundary.
// Duplicate-key writes become Duplicate, missing documents NotFound and
// anything else Database.
func FromMongo(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Wrap(NotFound, "record not found", err)
	}
	if mongo.IsDuplicateKeyError(err) || isBulkDuplicate(err) {
		return Wrap(Duplicate, "a record with this ID already exists", err)
	}
	return Wrap(Database, fmt.Sprintf("database operation failed: %s", op), err)
}

func isBulkDuplicate(err error) bool {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, we := range bwe.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	// some drivers surface the code only in the message
	return strings.Contains(err.Error(), "E11000")
}

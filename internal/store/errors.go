package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ErrorKind categorizes record-store failures.
type ErrorKind string

const (
	// KindValidation: a required field was empty, out of range or malformed.
	KindValidation ErrorKind = "VALIDATION_FAILED"

	// KindConstraint: the backend rejected a write (UNIQUE, FOREIGN KEY,
	// CHECK, NOT NULL or trigger abort).
	KindConstraint ErrorKind = "CONSTRAINT_VIOLATION"

	// KindNotFound: a get/update/delete targeted an id that does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindInvalidTransition: a task status change outside the permitted set.
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"

	// KindInsufficientStock: an order line asked for more units than exist.
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"

	// KindStorageUnavailable: the file could not be opened, read or written.
	// The store handle stays usable; the caller may retry.
	KindStorageUnavailable ErrorKind = "STORAGE_UNAVAILABLE"

	// KindSchema: a statement is malformed. Indicates a bug, not bad input.
	KindSchema ErrorKind = "SCHEMA_ERROR"
)

// Error is the single error type surfaced by the record store.
// Optional fields are populated when known.
type Error struct {
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Entity names the entity kind involved (e.g. "user").
	Entity string

	// Field names the offending field for validation failures.
	Field string

	// Constraint is the backend-reported constraint, e.g. "users.email".
	Constraint string

	// ID is the primary key involved, if any.
	ID int64

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var details []string
	if e.Entity != "" {
		details = append(details, "entity="+e.Entity)
	}
	if e.Field != "" {
		details = append(details, "field="+e.Field)
	}
	if e.Constraint != "" {
		details = append(details, "constraint="+e.Constraint)
	}
	if e.ID != 0 {
		details = append(details, fmt.Sprintf("id=%d", e.ID))
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool { return KindOf(err) == KindConstraint }

// IsNotFound reports whether err is a missing-id failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidTransition reports whether err is a rejected status change.
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }

// IsInsufficientStock reports whether err is an unfillable order line.
func IsInsufficientStock(err error) bool { return KindOf(err) == KindInsufficientStock }

// IsStorageUnavailable reports whether err is a storage failure.
func IsStorageUnavailable(err error) bool { return KindOf(err) == KindStorageUnavailable }

// IsSchema reports whether err is a malformed-statement failure.
func IsSchema(err error) bool { return KindOf(err) == KindSchema }

// NewValidationError reports an invalid field value.
func NewValidationError(entity, field, message string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, Field: field, Message: message}
}

// NewNotFoundError reports a missing row.
func NewNotFoundError(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: entity + " does not exist"}
}

// NewInvalidTransitionError reports a rejected task status change.
func NewInvalidTransitionError(id int64, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Entity:  "task",
		Field:   "status",
		ID:      id,
		Message: fmt.Sprintf("cannot move from %q to %q", from, to),
	}
}

// NewInsufficientStockError reports an order line larger than stock.
func NewInsufficientStockError(productID int64, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Entity:  "product",
		Field:   "stock",
		ID:      productID,
		Message: fmt.Sprintf("requested %d, available %d", requested, available),
	}
}

// NewDecodeError reports a stored row that does not decode into its
// entity. The file was written by something other than this store.
func NewDecodeError(entity string, err error) *Error {
	return &Error{Kind: KindSchema, Entity: entity, Message: "decode row", Err: err}
}

func storageUnavailable(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: op, Err: err}
}

// classify converts a driver error into an *Error. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		return &Error{
			Kind:       KindConstraint,
			Message:    op,
			Constraint: constraintName(sqliteErr),
			Err:        err,
		}
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrReadonly, sqlite3.ErrBusy,
		sqlite3.ErrLocked, sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrFull,
		sqlite3.ErrPerm, sqlite3.ErrNoLFS, sqlite3.ErrProtocol:
		return storageUnavailable(op, err)
	case sqlite3.ErrError:
		// A missing table means the file is not in the shape we created it
		// in (damaged or tampered with), not that the statement is wrong.
		if strings.Contains(sqliteErr.Error(), "no such table") {
			return storageUnavailable(op, err)
		}
		return &Error{Kind: KindSchema, Message: op, Err: err}
	default:
		return &Error{Kind: KindSchema, Message: op, Err: err}
	}
}

// constraintName extracts the constraint reported by SQLite, e.g.
// "UNIQUE constraint failed: users.email" -> "users.email". Foreign key
// failures carry no name and yield "FOREIGN KEY".
func constraintName(err sqlite3.Error) string {
	msg := err.Error()
	if i := strings.Index(msg, "constraint failed: "); i >= 0 {
		return strings.TrimSpace(msg[i+len("constraint failed: "):])
	}
	switch err.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return "FOREIGN KEY"
	case sqlite3.ErrConstraintTrigger:
		return "TRIGGER"
	}
	return ""
}

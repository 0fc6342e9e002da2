package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/recordstore/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The store rejected the request (validation, constraint, stock, ...)
	ExitCommandError = 2 // Command error (bad flags, unreadable files, etc.)
	ExitStorageError = 3 // The database file could not be used
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// An explicit ExitError wins; otherwise the store error kind decides, and
// anything else is ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch store.KindOf(err) {
	case store.KindStorageUnavailable, store.KindSchema:
		return ExitStorageError
	}
	return ExitFailure
}

// errorCodes are the stable codes reported for each store error kind.
var errorCodes = map[store.ErrorKind]string{
	store.KindValidation:         "E101",
	store.KindConstraint:         "E102",
	store.KindNotFound:           "E103",
	store.KindInvalidTransition:  "E104",
	store.KindInsufficientStock:  "E105",
	store.KindStorageUnavailable: "E201",
	store.KindSchema:             "E202",
}

// ErrorCode returns the stable code for err. Errors that did not come
// from the store are E001, or E002 when they carry ExitCommandError.
func ErrorCode(err error) string {
	if code, ok := errorCodes[store.KindOf(err)]; ok {
		return code
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitCommandError {
		return "E002"
	}
	return "E001"
}

// errorDetails exposes the structured fields of a store error.
func errorDetails(err error) map[string]any {
	var se *store.Error
	if !errors.As(err, &se) {
		return nil
	}
	d := map[string]any{"kind": string(se.Kind)}
	if se.Entity != "" {
		d["entity"] = se.Entity
	}
	if se.Field != "" {
		d["field"] = se.Field
	}
	if se.Constraint != "" {
		d["constraint"] = se.Constraint
	}
	if se.ID != 0 {
		d["id"] = se.ID
	}
	return d
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E101", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. Text
// output prints data with fmt, so report types implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err with its code and structured details.
func (f *OutputFormatter) Fail(err error) error {
	var details any
	if d := errorDetails(err); d != nil {
		details = d
	}
	return f.Error(ErrorCode(err), err.Error(), details)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

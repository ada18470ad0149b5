package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes audit failures so callers can decide whether to recover
// locally or surface the failure.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the audit request was malformed (HTTP 400).
	InvalidInput
	// Navigation indicates a page could not be reached or timed out while loading.
	Navigation
	// Extraction indicates a category extractor failed against the live document.
	Extraction
	// Session indicates the browser session could not be created.
	Session
	// Timeout indicates the overall audit deadline expired (HTTP 504).
	Timeout
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Navigation:
		return "navigation"
	case Extraction:
		return "extraction"
	case Session:
		return "session"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind    Kind
	Status  int // HTTP status returned by the audited page, when known
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New builds an AppError of the given kind.
func New(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// KindOf reports the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

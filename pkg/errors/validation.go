package errors

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidationError reports a malformed or incomplete payload. It identifies
// the offending collection, element index, element id (when known) and field.
//
// Index is -1 when the error is not about a collection element.
type ValidationError struct {
	Section string // "nodes", "edges", "viewport" or "" for the document
	Index   int
	ID      string
	Field   string
	Message string
}

// Validation creates a ValidationError for element index of section.
func Validation(section string, index int, id, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Section: section,
		Index:   index,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeValidation, e.Reason())
}

// Reason returns the message without the code prefix.
func (e *ValidationError) Reason() string {
	var loc []string
	switch {
	case e.Section != "" && e.Index >= 0:
		loc = append(loc, fmt.Sprintf("%s[%d]", e.Section, e.Index))
	case e.Section != "":
		loc = append(loc, e.Section)
	}
	if e.ID != "" {
		loc = append(loc, fmt.Sprintf("id=%q", e.ID))
	}
	if e.Field != "" {
		loc = append(loc, "field "+e.Field)
	}
	if len(loc) == 0 {
		return e.Message
	}
	return strings.Join(loc, " ") + ": " + e.Message
}

// ValidateID validates an entity id supplied by an import or a command.
//
// The rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a file path within a vault for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

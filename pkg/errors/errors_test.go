package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeResourceAcquisition, cause, "acquire drawing context")

	if err.Code != ErrCodeResourceAcquisition {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeResourceAcquisition)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeResourceAcquisition,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeResourceAcquisition, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeResourceAcquisition,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeUnsupportedFormat, "test"),
			expected: ErrCodeUnsupportedFormat,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidationErrorCode(t *testing.T) {
	var err error = Validation("nodes", 2, "n3", "position", "missing element")

	if !Is(err, ErrCodeValidation) {
		t.Error("Is(validation, ErrCodeValidation) = false, want true")
	}
	if got := UserMessage(err); got != `nodes[2] id="n3" field position: missing element` {
		t.Errorf("UserMessage() = %q", got)
	}

	wrapped := fmt.Errorf("import xml: %w", err)
	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As(*ValidationError) = false, want true")
	}
	if ve.ID != "n3" || ve.Index != 2 {
		t.Errorf("ValidationError = %+v", ve)
	}
}

func TestValidationErrorReason(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{"document", Validation("", -1, "", "", "not an object"), "not an object"},
		{"section", Validation("viewport", -1, "", "zoom", "not a number"), "viewport field zoom: not a number"},
		{"element", Validation("edges", 0, "e1", "to", "unknown node %q", "x"), `edges[0] id="e1" field to: unknown node "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Reason(); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	if !Is(UnsupportedFormat("export", "png"), ErrCodeUnsupportedFormat) {
		t.Error("UnsupportedFormat has wrong code")
	}
	cause := errors.New("no webgl")
	err := ResourceAcquisition(cause, "drawing context")
	if !Is(err, ErrCodeResourceAcquisition) {
		t.Error("ResourceAcquisition has wrong code")
	}
	if !errors.Is(err, cause) {
		t.Error("ResourceAcquisition should wrap its cause")
	}
}

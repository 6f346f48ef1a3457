// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrInvalidPrefixFormat  = errors.New("invalid prefix format")
	ErrInvalidAddressFormat = errors.New("invalid address format")
	ErrNotFound             = errors.New("not found")
	ErrValidationFailed     = errors.New("validation failed")
	ErrUnsupportedVendor    = errors.New("unsupported configuration vendor")
)

// FormatKind selects which sentinel a FormatError unwraps to.
type FormatKind int

const (
	KindPrefix FormatKind = iota
	KindAddress
)

// FormatError reports a malformed prefix, address, or mask string.
type FormatError struct {
	Kind   FormatKind
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	what := "prefix"
	if e.Kind == KindAddress {
		what = "address"
	}
	msg := fmt.Sprintf("invalid %s %q", what, e.Input)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	if e.Kind == KindAddress {
		return ErrInvalidAddressFormat
	}
	return ErrInvalidPrefixFormat
}

// NewPrefixError creates a FormatError for a malformed a.b.c.d/n string
func NewPrefixError(input, reason string) *FormatError {
	return &FormatError{Kind: KindPrefix, Input: input, Reason: reason}
}

// NewAddressError creates a FormatError for a malformed dotted-decimal string
func NewAddressError(input, reason string) *FormatError {
	return &FormatError{Kind: KindAddress, Input: input, Reason: reason}
}

// ValidationError lists every problem found in one value. It unwraps to
// ErrValidationFailed.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed (%d problems):\n  - %s", len(e.Errors), strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder collects problems and reports them all at once.
// The zero value is ready to use.
type ValidationBuilder struct {
	errors []string
}

// Add records message unless ok holds.
func (v *ValidationBuilder) Add(ok bool, message string) *ValidationBuilder {
	if !ok {
		v.errors = append(v.errors, message)
	}
	return v
}

func (v *ValidationBuilder) AddError(message string) *ValidationBuilder {
	v.errors = append(v.errors, message)
	return v
}

func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	return v.AddError(fmt.Sprintf(format, args...))
}

// Wrap records the problems of a nested validation under prefix. A
// *ValidationError contributes each of its messages; any other error is
// recorded as a single message.
func (v *ValidationBuilder) Wrap(prefix string, err error) *ValidationBuilder {
	if err == nil {
		return v
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return v.AddErrorf("%s: %v", prefix, err)
	}
	for _, msg := range ve.Errors {
		v.AddErrorf("%s: %s", prefix, msg)
	}
	return v
}

// Build returns nil when nothing was recorded, else a *ValidationError.
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return NewValidationError(v.errors...)
}

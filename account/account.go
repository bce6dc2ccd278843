// Package account defines participant identifiers and the validator that
// turns caller-supplied strings into them.
package account

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidAddress is returned when a string is not a well-formed account identifier.
var ErrInvalidAddress = errors.New("invalid address")

const (
	MinLength = 3
	MaxLength = 64
)

// ID is a validated account identifier. Two IDs are equal only if byte-identical.
type ID string

// String returns the identifier as a plain string
func (id ID) String() string {
	return string(id)
}

// Validator checks and normalizes account identifiers.
type Validator interface {
	Validate(raw string) (ID, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(raw string) (ID, error)

// Validate calls f(raw).
func (f ValidatorFunc) Validate(raw string) (ID, error) {
	return f(raw)
}

var addressPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// DefaultValidator accepts lowercase identifiers of MinLength..MaxLength
// characters drawn from [a-z0-9._-], starting with a letter or digit.
// Mixed-case input is rejected rather than folded, so the caller always
// supplies the canonical form.
var DefaultValidator Validator = ValidatorFunc(validate)

func validate(raw string) (ID, error) {
	if len(raw) < MinLength {
		return "", fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidAddress, raw, MinLength)
	}
	if len(raw) > MaxLength {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidAddress, raw, MaxLength)
	}
	if !addressPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q is not normalized", ErrInvalidAddress, raw)
	}
	return ID(raw), nil
}

// Validate runs the default validator.
func Validate(raw string) (ID, error) {
	return DefaultValidator.Validate(raw)
}

// Package validation holds the local input checks that run before any call
// to the identity provider or the record store.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinPasswordLen = 6
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

type Kind int

const (
	MissingField Kind = iota + 1
	InvalidEmail
	WeakPassword
	PasswordMismatch
	InvalidPhone
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case InvalidEmail:
		return "invalid_email"
	case WeakPassword:
		return "weak_password"
	case PasswordMismatch:
		return "password_mismatch"
	case InvalidPhone:
		return "invalid_phone"
	}
	return "unknown"
}

// Error is a local validation failure. Field is set for MissingField only.
type Error struct {
	Kind  Kind
	Field string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Kind, e.Field)
	}
	return "validation: " + e.Kind.String()
}

// Field is a named form value. Required checks fields in the order given.
type Field struct {
	Name  string
	Value string
}

// Required fails with MissingField for the first field whose value is empty.
// Whitespace-only values count as empty.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return &Error{Kind: MissingField, Field: f.Name}
		}
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(v string) error {
	if !emailRe.MatchString(v) {
		return &Error{Kind: InvalidEmail}
	}
	return nil
}

// Password counts characters, not bytes.
func Password(v string) error {
	if len([]rune(v)) < MinPasswordLen {
		return &Error{Kind: WeakPassword}
	}
	return nil
}

func PasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return &Error{Kind: PasswordMismatch}
	}
	return nil
}

// Phone strips every non-digit and checks the remaining count.
func Phone(v string) error {
	n := len(Digits(v))
	if n < MinPhoneDigits || n > MaxPhoneDigits {
		return &Error{Kind: InvalidPhone}
	}
	return nil
}

// Digits returns only the ASCII decimal digits of v.
func Digits(v string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, v)
}

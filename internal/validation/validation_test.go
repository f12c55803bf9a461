package validation

import (
	"errors"
	"strings"
	"testing"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	return ve.Kind
}

func TestRequired_FirstEmptyFieldWins(t *testing.T) {
	err := Required(
		Field{"email", "a@b.com"},
		Field{"password", ""},
		Field{"name", ""},
	)
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Kind != MissingField || ve.Field != "password" {
		t.Fatalf("expected missing password, got %+v", ve)
	}

	if err := Required(Field{"name", "  \t"}); err == nil {
		t.Fatal("whitespace-only value must count as empty")
	}
	if err := Required(Field{"name", "Ali"}, Field{"school", "Al-Noor"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Required(); err != nil {
		t.Fatalf("no fields is valid: %v", err)
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@b.com", "user.name+tag@school.edu.eg", "x@y.z"}
	for _, v := range valid {
		if err := Email(v); err != nil {
			t.Fatalf("expected %q to be valid: %v", v, err)
		}
	}
	invalid := []string{"", "plain", "a@b", "@b.com", "a@.com", "a b@c.com", "a@b c.com", "a@@b.com", "a@b."}
	for _, v := range invalid {
		if err := Email(v); err == nil || kindOf(t, err) != InvalidEmail {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}

func TestPassword(t *testing.T) {
	if err := Password("abc"); err == nil || kindOf(t, err) != WeakPassword {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := Password("12345"); err == nil {
		t.Fatal("5 chars must be rejected")
	}
	if err := Password("secret"); err != nil {
		t.Fatalf("6 chars must pass: %v", err)
	}
	// six Arabic letters are twelve bytes but six characters
	if err := Password("كلمةسر"); err != nil {
		t.Fatalf("expected rune length to count: %v", err)
	}
}

func TestPasswordConfirmation(t *testing.T) {
	if err := PasswordConfirmation("secret1", "secret2"); err == nil || kindOf(t, err) != PasswordMismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := PasswordConfirmation("secret1", "secret1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPhone(t *testing.T) {
	cases := map[string]bool{
		"+20 100 123 4567":     true,
		"0100-123-4567":        true,
		"123456789":            false,
		"1234567890":           true,
		"123456789012345":      true,
		"1234567890123456":     false,
		"":                     false,
		"phone: (010) 0123456": true,
		"٠١٠٠١٢٣٤٥٦٧":          false, // Arabic-Indic digits are stripped
	}
	for in, ok := range cases {
		err := Phone(in)
		if ok && err != nil {
			t.Fatalf("expected %q to be valid: %v", in, err)
		}
		if !ok && (err == nil || kindOf(t, err) != InvalidPhone) {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+20 (100) 123-4567"); got != "201001234567" {
		t.Fatalf("got %q", got)
	}
	if got := Digits(strings.Repeat("x", 5)); got != "" {
		t.Fatalf("got %q", got)
	}
}

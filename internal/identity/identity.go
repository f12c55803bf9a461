// Package identity is the identity provider client: email/password accounts,
// sign-in with an ID token, and a push-based view of the current session.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is an authenticated principal. Token is the ID token issued at
// sign-in and is empty for identities that were never signed in.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Provider is the capability the rest of the portal consumes.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context, id Identity) error
	// Observe calls fn with the current identity (nil when signed out) right
	// away and again after every change, until the returned func is called.
	Observe(fn func(*Identity)) (unsubscribe func())
}

type Kind int

const (
	Unknown Kind = iota
	EmailInUse
	InvalidEmail
	OperationNotAllowed
	WeakPassword
	UserNotFound
	WrongPassword
	UserDisabled
	TooManyRequests
	InvalidToken
)

var codes = map[Kind]string{
	Unknown:             "unknown",
	EmailInUse:          "email-already-in-use",
	InvalidEmail:        "invalid-email",
	OperationNotAllowed: "operation-not-allowed",
	WeakPassword:        "weak-password",
	UserNotFound:        "user-not-found",
	WrongPassword:       "wrong-password",
	UserDisabled:        "user-disabled",
	TooManyRequests:     "too-many-requests",
	InvalidToken:        "invalid-id-token",
}

// Code is the provider's wire code for k.
func (k Kind) Code() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[Unknown]
}

func (k Kind) String() string { return k.Code() }

// Error carries an enumerated Kind; callers switch on Kind and never parse
// the message.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Kind.Code(), e.Err)
	}
	return "identity: " + e.Kind.Code()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return Unknown
}

func fail(k Kind, err error) error {
	return &Error{Kind: k, Err: err}
}

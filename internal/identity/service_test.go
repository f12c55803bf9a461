package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, opts Options) (*Service, *MemoryAccounts) {
	t.Helper()
	accounts := NewMemoryAccounts()
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.MinCost
	}
	return NewService(accounts, NewTokens("test-secret", "portal-test", time.Hour), opts), accounts
}

// countingThrottle is an in-memory Throttler with a fixed limit.
type countingThrottle struct {
	mu    sync.Mutex
	max   int
	fails map[string]int
}

func (c *countingThrottle) Allow(_ context.Context, email string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fails[email] < c.max, nil
}

func (c *countingThrottle) Fail(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fails[email]++
	return nil
}

func (c *countingThrottle) Reset(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fails, email)
	return nil
}

func TestCreateAccount(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	s := svc.NewSession()

	id, err := s.CreateAccount(ctx, " a@b.com ", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if id.UID == "" || id.Email != "a@b.com" || id.Token == "" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if cur := s.Current(); cur == nil || cur.UID != id.UID {
		t.Fatalf("creating an account signs it in, got %+v", cur)
	}

	cases := []struct {
		name     string
		email    string
		password string
		kind     Kind
	}{
		{"duplicate_email", "A@B.com", "secret1", EmailInUse},
		{"bad_email", "not-an-email", "secret1", InvalidEmail},
		{"weak_password", "c@d.com", "abc", WeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.NewSession().CreateAccount(ctx, tc.email, tc.password)
			if KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestCreateAccount_SignupDisabled(t *testing.T) {
	svc, _ := newTestService(t, Options{SignupDisabled: true})
	_, err := svc.NewSession().CreateAccount(context.Background(), "a@b.com", "secret1")
	if KindOf(err) != OperationNotAllowed {
		t.Fatalf("expected operation-not-allowed, got %v", err)
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind.Code() != "operation-not-allowed" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignIn(t *testing.T) {
	svc, accounts := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.NewSession().CreateAccount(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err := accounts.Create(ctx, Account{UID: "off", Email: "off@b.com", PasswordHash: string(hash), Disabled: true}); err != nil {
		t.Fatal(err)
	}

	t.Run("ok", func(t *testing.T) {
		s := svc.NewSession()
		id, err := s.SignIn(ctx, "A@b.com", "secret1")
		if err != nil {
			t.Fatal(err)
		}
		if s.Current() == nil || s.Current().UID != id.UID {
			t.Fatal("session must hold the signed-in identity")
		}
	})

	cases := []struct {
		name, email, password string
		kind                  Kind
	}{
		{"unknown_user", "x@y.com", "secret1", UserNotFound},
		{"wrong_password", "a@b.com", "secret2", WrongPassword},
		{"disabled", "off@b.com", "secret1", UserDisabled},
		{"invalid_email", "a@b", "secret1", InvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := svc.NewSession()
			_, err := s.SignIn(ctx, tc.email, tc.password)
			if KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
			if s.Current() != nil {
				t.Fatal("failed sign-in must leave the session signed out")
			}
		})
	}
}

func TestSignIn_Throttled(t *testing.T) {
	th := &countingThrottle{max: 2, fails: map[string]int{}}
	svc, _ := newTestService(t, Options{Throttle: th})
	ctx := context.Background()
	if _, err := svc.NewSession().CreateAccount(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	s := svc.NewSession()
	for i := 0; i < 2; i++ {
		if _, err := s.SignIn(ctx, "a@b.com", "bad-password"); KindOf(err) != WrongPassword {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := s.SignIn(ctx, "a@b.com", "secret1"); KindOf(err) != TooManyRequests {
		t.Fatalf("expected too-many-requests, got %v", err)
	}
	_ = th.Reset(ctx, "a@b.com")
	if _, err := s.SignIn(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatalf("expected sign-in after reset: %v", err)
	}
}

func TestObserve(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	s := svc.NewSession()

	var got []*Identity
	unsubscribe := s.Observe(func(id *Identity) { got = append(got, id) })
	if len(got) != 1 || got[0] != nil {
		t.Fatalf("observe must fire once immediately with no identity, got %v", got)
	}

	id, err := s.CreateAccount(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1] == nil || got[1].UID != id.UID || got[2] != nil {
		t.Fatalf("unexpected notifications %v", got)
	}

	unsubscribe()
	unsubscribe()
	if _, err := s.SignIn(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("no notifications after unsubscribe, got %d", len(got))
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, accounts := newTestService(t, Options{})
	ctx := context.Background()
	s := svc.NewSession()
	id, err := s.CreateAccount(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAccount(ctx, id); err != nil {
		t.Fatal(err)
	}
	if s.Current() != nil {
		t.Fatal("deleting the signed-in account signs out")
	}
	if _, err := accounts.ByUID(ctx, id.UID); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("account still present: %v", err)
	}
	if err := s.DeleteAccount(ctx, id); KindOf(err) != UserNotFound {
		t.Fatalf("expected user-not-found, got %v", err)
	}
	// the email is free again
	if _, err := s.CreateAccount(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatalf("re-register after delete: %v", err)
	}
}

func TestRestore(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	id, err := svc.NewSession().CreateAccount(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	s := svc.NewSession()
	got, err := s.Restore(ctx, id.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UID != id.UID || s.Current() == nil {
		t.Fatalf("restore: %+v", got)
	}
	if _, err := svc.NewSession().Restore(ctx, "garbage"); KindOf(err) != InvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

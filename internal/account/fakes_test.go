package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/store"
)

// journal records calls of both fakes in one order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

func (j *journal) count(prefix string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, c := range j.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

// fakeIDP is an in-memory identity.Provider that counts calls.
type fakeIDP struct {
	j *journal

	mu        sync.Mutex
	emails    map[string]string // email -> uid
	next      int
	current   *identity.Identity
	createErr error
	signInErr error
	deleteErr error
	onCreate  func()
}

func newFakeIDP(j *journal) *fakeIDP {
	return &fakeIDP{j: j, emails: make(map[string]string)}
}

func (f *fakeIDP) CreateAccount(_ context.Context, email, _ string) (identity.Identity, error) {
	f.j.add("idp.create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return identity.Identity{}, f.createErr
	}
	if _, ok := f.emails[email]; ok {
		return identity.Identity{}, &identity.Error{Kind: identity.EmailInUse}
	}
	f.next++
	id := identity.Identity{UID: fmt.Sprintf("uid-%d", f.next), Email: email, Token: "tok"}
	f.emails[email] = id.UID
	f.current = &id
	if f.onCreate != nil {
		f.onCreate()
	}
	return id, nil
}

func (f *fakeIDP) SignIn(_ context.Context, email, _ string) (identity.Identity, error) {
	f.j.add("idp.signin")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return identity.Identity{}, f.signInErr
	}
	uid, ok := f.emails[email]
	if !ok {
		return identity.Identity{}, &identity.Error{Kind: identity.UserNotFound}
	}
	id := identity.Identity{UID: uid, Email: email, Token: "tok"}
	f.current = &id
	return id, nil
}

func (f *fakeIDP) SignOut(context.Context) error {
	f.j.add("idp.signout")
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeIDP) DeleteAccount(_ context.Context, id identity.Identity) error {
	f.j.add("idp.delete " + id.UID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.emails, id.Email)
	f.current = nil
	return nil
}

func (f *fakeIDP) Observe(fn func(*identity.Identity)) func() {
	fn(f.current)
	return func() {}
}

func (f *fakeIDP) accounts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emails)
}

// fakeStore wraps store.Memory, counts calls and fails writes under chosen
// path prefixes.
type fakeStore struct {
	*store.Memory
	j *journal

	mu         sync.Mutex
	failWrite  map[string]error
	failDelete error
	failRead   error
}

var errBoom = errors.New("boom")

func newFakeStore(j *journal) *fakeStore {
	return &fakeStore{Memory: store.NewMemory(), j: j, failWrite: make(map[string]error)}
}

func (s *fakeStore) failWritesUnder(prefix string) {
	s.mu.Lock()
	s.failWrite[prefix] = fmt.Errorf("%w: %w", store.ErrStore, errBoom)
	s.mu.Unlock()
}

func (s *fakeStore) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	s.j.add("store.read " + path)
	if s.failRead != nil {
		return nil, false, s.failRead
	}
	return s.Memory.Read(ctx, path)
}

func (s *fakeStore) Write(ctx context.Context, path string, value any) error {
	s.j.add("store.write " + path)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for prefix, err := range s.failWrite {
		if strings.HasPrefix(path, prefix) {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()
	return s.Memory.Write(ctx, path, value)
}

func (s *fakeStore) Patch(ctx context.Context, path string, partial map[string]any) error {
	s.j.add("store.patch " + path)
	return s.Memory.Patch(ctx, path, partial)
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	s.j.add("store.delete " + path)
	if s.failDelete != nil {
		return s.failDelete
	}
	return s.Memory.Delete(ctx, path)
}

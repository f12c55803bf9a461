package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/metrics"
	"github.com/Spok95/school-portal/internal/validation"
)

type Options struct {
	// SignupDisabled makes CreateAccount fail with OperationNotAllowed.
	SignupDisabled bool
	Throttle       Throttler
	HashCost       int
	Logger         *zap.Logger
	Now            func() time.Time
}

// Service is the shared provider backend. Each client gets its own Session
// from NewSession; sessions share accounts, tokens and throttling.
type Service struct {
	accounts       Accounts
	tokens         *Tokens
	throttle       Throttler
	signupDisabled bool
	hashCost       int
	log            *zap.Logger
	now            func() time.Time
}

func NewService(accounts Accounts, tokens *Tokens, opts Options) *Service {
	s := &Service{
		accounts:       accounts,
		tokens:         tokens,
		throttle:       opts.Throttle,
		signupDisabled: opts.SignupDisabled,
		hashCost:       opts.HashCost,
		log:            logging.OrNop(opts.Logger),
		now:            opts.Now,
	}
	if s.throttle == nil {
		s.throttle = NoThrottle{}
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) NewSession() *Session {
	return &Session{svc: s, observers: make(map[int]func(*Identity))}
}

// Session is one client's handle on the provider. It implements Provider.
type Session struct {
	svc *Service

	mu        sync.Mutex
	current   *Identity
	observers map[int]func(*Identity)
	nextID    int
}

var _ Provider = (*Session)(nil)

func (s *Session) CreateAccount(ctx context.Context, email, password string) (Identity, error) {
	if s.svc.signupDisabled {
		return Identity{}, fail(OperationNotAllowed, nil)
	}
	email = strings.TrimSpace(email)
	if validation.Email(email) != nil {
		return Identity{}, fail(InvalidEmail, nil)
	}
	if validation.Password(password) != nil {
		return Identity{}, fail(WeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.svc.hashCost)
	if err != nil {
		return Identity{}, fail(Unknown, err)
	}
	acc := Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.svc.now().UTC(),
	}
	if err := s.svc.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Identity{}, fail(EmailInUse, nil)
		}
		return Identity{}, fail(Unknown, err)
	}
	return s.signedIn(acc)
}

func (s *Session) SignIn(ctx context.Context, email, password string) (id Identity, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).Code()
		}
		metrics.SignIns.WithLabelValues(outcome).Inc()
	}()

	email = strings.TrimSpace(email)
	if validation.Email(email) != nil {
		return Identity{}, fail(InvalidEmail, nil)
	}
	ok, terr := s.svc.throttle.Allow(ctx, email)
	if terr != nil {
		// без redis не блокируем вход
		s.svc.log.Warn("sign-in throttle unavailable", zap.Error(terr))
	}
	if !ok {
		return Identity{}, fail(TooManyRequests, nil)
	}

	acc, err := s.svc.accounts.ByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		s.recordFailure(ctx, email)
		return Identity{}, fail(UserNotFound, nil)
	}
	if err != nil {
		return Identity{}, fail(Unknown, err)
	}
	if acc.Disabled {
		return Identity{}, fail(UserDisabled, nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, email)
		return Identity{}, fail(WrongPassword, nil)
	}
	if err := s.svc.throttle.Reset(ctx, email); err != nil {
		s.svc.log.Warn("sign-in throttle reset failed", zap.Error(err))
	}
	return s.signedIn(acc)
}

func (s *Session) SignOut(context.Context) error {
	s.set(nil)
	return nil
}

// DeleteAccount removes the account. If it is the signed-in one, the session
// is signed out.
func (s *Session) DeleteAccount(ctx context.Context, id Identity) error {
	if err := s.svc.accounts.Delete(ctx, id.UID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fail(UserNotFound, nil)
		}
		return fail(Unknown, err)
	}
	s.mu.Lock()
	own := s.current != nil && s.current.UID == id.UID
	s.mu.Unlock()
	if own {
		s.set(nil)
	}
	return nil
}

// Restore signs the session in from a previously issued ID token.
func (s *Session) Restore(ctx context.Context, token string) (Identity, error) {
	uid, _, err := s.svc.tokens.Parse(token)
	if err != nil {
		return Identity{}, fail(InvalidToken, err)
	}
	acc, err := s.svc.accounts.ByUID(ctx, uid)
	if errors.Is(err, ErrAccountNotFound) {
		return Identity{}, fail(UserNotFound, nil)
	}
	if err != nil {
		return Identity{}, fail(Unknown, err)
	}
	if acc.Disabled {
		return Identity{}, fail(UserDisabled, nil)
	}
	id := Identity{UID: acc.UID, Email: acc.Email, Token: token}
	s.set(&id)
	return id, nil
}

// Current returns a copy of the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

func (s *Session) Observe(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	cur := clone(s.current)
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) signedIn(acc Account) (Identity, error) {
	tok, err := s.svc.tokens.Issue(acc.UID, acc.Email)
	if err != nil {
		return Identity{}, fail(Unknown, err)
	}
	id := Identity{UID: acc.UID, Email: acc.Email, Token: tok}
	s.set(&id)
	return id, nil
}

func (s *Session) recordFailure(ctx context.Context, email string) {
	if err := s.svc.throttle.Fail(ctx, email); err != nil {
		s.svc.log.Warn("sign-in throttle update failed", zap.Error(err))
	}
}

func (s *Session) set(id *Identity) {
	s.mu.Lock()
	s.current = clone(id)
	fns := make([]func(*Identity), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(clone(id))
	}
}

func clone(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// Account is the stored credential record behind an Identity.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
}

// Accounts is the credential backend. Emails compare case-insensitively.
type Accounts interface {
	Create(ctx context.Context, a Account) error
	ByEmail(ctx context.Context, email string) (Account, error)
	ByUID(ctx context.Context, uid string) (Account, error)
	Delete(ctx context.Context, uid string) error
}

// MemoryAccounts keeps accounts in process memory.
type MemoryAccounts struct {
	mu      sync.RWMutex
	byUID   map[string]Account
	byEmail map[string]string
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		byUID:   make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryAccounts) Create(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := m.byEmail[key]; ok {
		return ErrEmailTaken
	}
	m.byUID[a.UID] = a
	m.byEmail[key] = a.UID
	return nil
}

func (m *MemoryAccounts) ByEmail(_ context.Context, email string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return m.byUID[uid], nil
}

func (m *MemoryAccounts) ByUID(_ context.Context, uid string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byUID[uid]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *MemoryAccounts) Delete(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byUID[uid]
	if !ok {
		return ErrAccountNotFound
	}
	delete(m.byUID, uid)
	delete(m.byEmail, strings.ToLower(a.Email))
	return nil
}

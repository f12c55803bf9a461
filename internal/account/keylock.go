package account

import "sync"

// KeyLock не даёт двум операциям с одним ключом (именем школы) идти
// одновременно внутри процесса. Между процессами не работает.
type KeyLock struct {
	mu    sync.Mutex
	byKey map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{byKey: make(map[string]*keyEntry)}
}

// Lock blocks until key is free and returns the unlock func.
func (l *KeyLock) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.byKey[key]
	if !ok {
		e = &keyEntry{}
		l.byKey[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byKey, key)
		}
		l.mu.Unlock()
	}
}

func (l *KeyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

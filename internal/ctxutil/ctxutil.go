package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyUID key = iota
	keyOpName
)

// WithUID / UID: uid текущей учётной записи (если уже известен)
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

func UID(ctx context.Context) (string, bool) {
	v := ctx.Value(keyUID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// WithOp / Op: имя операции (для логов и Sentry)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DefaultStoreTimeout переопределяется из конфига (STORE_TIMEOUT) при старте.
var DefaultStoreTimeout = 5 * time.Second

// WithTimeout: обёртка над context.WithTimeout; d<=0 означает без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithStoreTimeout: стандартный таймаут одного обращения к хранилищу.
// Если у родителя осталось меньше, берём остаток.
func WithStoreTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < DefaultStoreTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return WithTimeout(parent, DefaultStoreTimeout)
}

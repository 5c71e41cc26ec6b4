package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyUsername key = iota
	keyOpName
)

// WithUsername /Username — пользователь текущей сессии (для логов)
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, keyUsername, username)
}

func Username(ctx context.Context) (string, bool) {
	v := ctx.Value(keyUsername)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// WithOp /Op — имя эффекта или запроса (для логов/метрик)
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

// OpOr — имя операции или def.
func OpOr(ctx context.Context, def string) string {
	if s, ok := Op(ctx); ok && s != "" {
		return s
	}
	return def
}

var DefaultRequestTimeout = 15 * time.Second

// WithTimeout — обёртка над context.WithTimeout; d<=0 — без таймаута.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithRequestTimeout — таймаут одного HTTP-запроса к бэкенду.
// Если у родителя осталось меньше — берём остаток.
func WithRequestTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < d {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, d)
}

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SyncLockKey is the key every process contends on before syncing.
const SyncLockKey = "support-insights:sync-lock"

// Locker hands out exclusive leases. persistence.Redis satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// LocalLocker serializes holders inside this process only.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]lease
}

// lease with a zero expires never expires.
type lease struct {
	token   string
	expires time.Time
}

func (l lease) live(now time.Time) bool {
	return l.expires.IsZero() || now.Before(l.expires)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]lease{}}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if current, ok := l.held[key]; ok && current.live(now) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = lease{token: token, expires: expiry(now, ttl)}
	return token, true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.held[key]; ok && current.token == token {
		delete(l.held, key)
	}
	return nil
}

func (l *LocalLocker) Extend(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	current, ok := l.held[key]
	if !ok || current.token != token || !current.live(now) {
		return false, nil
	}
	l.held[key] = lease{token: token, expires: expiry(now, ttl)}
	return true, nil
}

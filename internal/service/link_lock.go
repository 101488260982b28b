package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLinkInProgress indica que otro login ya está reconciliando el mismo email.
var ErrLinkInProgress = errors.New("link already in progress")

// LinkLock serializa reconciliaciones por clave (email normalizado).
type LinkLock interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript borra la clave solo si sigue siendo nuestra.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisLinkLock struct {
	client redisLocker
	ttl    time.Duration
	prefix string
}

// NewRedisLinkLock crea un lock distribuido con lease; si Redis falla se deja pasar.
func NewRedisLinkLock(client *redis.Client, ttl time.Duration) LinkLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLinkLock{
		client: client,
		ttl:    ttl,
		prefix: "link:lock:",
	}
}

func (l *redisLinkLock) Acquire(ctx context.Context, key string) (func(), error) {
	normalizedKey := normalizeLockKey(key)
	if normalizedKey == "" {
		return func() {}, nil
	}
	redisKey := l.prefix + normalizedKey
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return func() {}, nil
	}
	if !ok {
		return nil, ErrLinkInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = l.client.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Err()
	}
	return release, nil
}

type memoryLinkLock struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[string]time.Time
	nowFn func() time.Time
}

// NewMemoryLinkLock crea un lock en memoria para una sola instancia.
func NewMemoryLinkLock(ttl time.Duration) LinkLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &memoryLinkLock{
		ttl:   ttl,
		held:  make(map[string]time.Time),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryLinkLock) Acquire(_ context.Context, key string) (func(), error) {
	normalizedKey := normalizeLockKey(key)
	if normalizedKey == "" {
		return func() {}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if exp, ok := l.held[normalizedKey]; ok && now.Before(exp) {
		return nil, ErrLinkInProgress
	}
	expiresAt := now.Add(l.ttl)
	l.held[normalizedKey] = expiresAt

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[normalizedKey].Equal(expiresAt) {
				delete(l.held, normalizedKey)
			}
		})
	}
	return release, nil
}

func normalizeLockKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

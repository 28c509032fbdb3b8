package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/wizard"
)

const (
	sessionKeyPrefix  = "rental:wizard:"
	defaultSessionTTL = 24 * time.Hour
	defaultLockTTL    = 30 * time.Second
	lockRetryInterval = 50 * time.Millisecond
	unlockTimeout     = 2 * time.Second
)

// Deletes the lock only if it still carries our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func sessionKey(id uuid.UUID) string { return sessionKeyPrefix + id.String() }
func lockKey(id uuid.UUID) string    { return sessionKeyPrefix + id.String() + ":lock" }

// RedisSessionStore keeps wizard snapshots in Redis with a sliding TTL and
// serializes mutations with a SET NX PX lock per session.
type RedisSessionStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisSessionStore creates a store. ttl <= 0 selects 24h.
func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl, lockTTL: defaultLockTTL}
}

func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*wizard.Wizard, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("Wizard", id.String())
		}
		return nil, domain.NewUnavailableError("session store unavailable", err)
	}

	var snap wizard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode wizard %s: %w", id, err)
	}
	return wizard.Reconstruct(snap), nil
}

func (s *RedisSessionStore) Save(ctx context.Context, w *wizard.Wizard) error {
	data, err := json.Marshal(w.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode wizard %s: %w", w.ID(), err)
	}
	if err := s.client.Set(ctx, sessionKey(w.ID()), data, s.ttl).Err(); err != nil {
		return domain.NewUnavailableError("session store unavailable", err)
	}
	return nil
}

func (s *RedisSessionStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := lockKey(id)
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, domain.NewConflictError("booking session is busy, retry shortly")
			}
			return nil, domain.NewUnavailableError("session store unavailable", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, domain.NewConflictError("booking session is busy, retry shortly")
		case <-time.After(lockRetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			uctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
			defer cancel()
			_ = releaseLock.Run(uctx, s.client, []string{key}, token).Err()
		})
	}, nil
}

// Name identifies the store in readiness reports.
func (s *RedisSessionStore) Name() string { return "redis" }

// Check pings Redis for the readiness probe.
func (s *RedisSessionStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type memoryEntry struct {
	snap    wizard.Snapshot
	expires time.Time
}

// memoryLock counts the holder and waiters of one session lock.
type memoryLock struct {
	ch   chan struct{}
	refs int
}

// MemorySessionStore is an in-process SessionStore for single-node runs and tests.
type MemorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[uuid.UUID]memoryEntry
	locks map[uuid.UUID]*memoryLock
	now   func() time.Time
}

// NewMemorySessionStore creates a store. ttl <= 0 selects 24h.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:   ttl,
		items: make(map[uuid.UUID]memoryEntry),
		locks: make(map[uuid.UUID]*memoryLock),
		now:   time.Now,
	}
}

func (s *MemorySessionStore) Get(_ context.Context, id uuid.UUID) (*wizard.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok || s.now().After(e.expires) {
		delete(s.items, id)
		return nil, domain.NewNotFoundError("Wizard", id.String())
	}
	return wizard.Reconstruct(e.snap), nil
}

func (s *MemorySessionStore) Save(_ context.Context, w *wizard.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[w.ID()] = memoryEntry{snap: w.Snapshot(), expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemorySessionStore) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &memoryLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		s.release(id, l)
		return nil, domain.NewConflictError("booking session is busy, retry shortly")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			s.release(id, l)
		})
	}, nil
}

// release drops one reference and forgets the lock once nobody holds or
// waits for it.
func (s *MemorySessionStore) release(id uuid.UUID, l *memoryLock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/domain/wizard"
)

func TestMemorySessionStore_GetMissing(t *testing.T) {
	s := NewMemorySessionStore(time.Hour)
	_, err := s.Get(context.Background(), uuid.New())

	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMemorySessionStore_SaveIsolatesState(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(time.Hour)
	w, err := wizard.New(uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, w.SetOrigin(wizard.Place{Address: "Ngurah Rai Airport"}))
	require.NoError(t, s.Save(ctx, w))

	// Mutating after Save must not leak into the stored copy.
	require.NoError(t, w.SetOrigin(wizard.Place{Address: "Ubud"}))

	got, err := s.Get(ctx, w.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ngurah Rai Airport", got.Trip().Origin.Address)
	assert.Equal(t, w.OwnerID(), got.OwnerID())
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	w, err := wizard.New(uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, w))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = s.Get(ctx, w.ID())
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMemorySessionStore_LockIsExclusive(t *testing.T) {
	s := NewMemorySessionStore(time.Hour)
	id := uuid.New()

	unlock, err := s.Lock(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Lock(ctx, id)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	// Other sessions are unaffected.
	other, err := s.Lock(context.Background(), uuid.New())
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := s.Lock(context.Background(), id)
	require.NoError(t, err)
	again()
}

func TestMemorySessionStore_LocksAreForgotten(t *testing.T) {
	s := NewMemorySessionStore(time.Hour)
	lockCount := func() int {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.locks)
	}

	for i := 0; i < 50; i++ {
		unlock, err := s.Lock(context.Background(), uuid.New())
		require.NoError(t, err)
		unlock()
	}
	assert.Zero(t, lockCount())

	id := uuid.New()
	unlock, err := s.Lock(context.Background(), id)
	require.NoError(t, err)

	// A waiter that gives up leaves the holder's entry in place.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Lock(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 1, lockCount())

	// A waiter blocked at unlock time inherits the entry.
	acquired := make(chan func(), 1)
	go func() {
		next, err := s.Lock(context.Background(), id)
		if assert.NoError(t, err) {
			acquired <- next
		}
	}()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.locks[id] != nil && s.locks[id].refs == 2
	}, time.Second, 5*time.Millisecond)
	unlock()

	var next func()
	select {
	case next = <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Equal(t, 1, lockCount())
	next()
	assert.Zero(t, lockCount())
}

package sessions

import (
	"context"
	"sync"

	"github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store owns the single Session of the process. Reads are synchronous and never fail;
// writes are atomic with respect to readers and never surface storage errors.
type Store interface {
	Save(ctx context.Context, s Session)
	Load(ctx context.Context) Session
	Clear(ctx context.Context)
	IsAuthenticated(ctx context.Context) bool

	// UpdateTokens replaces the credentials minted from usedRefresh. An empty newRefresh
	// keeps the current refresh token. It reports false, changing nothing, when the
	// stored refresh token is no longer usedRefresh.
	UpdateTokens(ctx context.Context, usedRefresh, accessToken, newRefresh string) bool
}

var _ Store = (*PersistentStore)(nil)

// PersistentStore keeps an in-memory snapshot backed by a storage.KeyValue. When the
// backend fails it keeps going on the snapshot alone for the rest of the process.
type PersistentStore struct {
	mu       sync.RWMutex
	current  Session
	backend  storage.KeyValue
	degraded bool
	logger   zerolog.Logger
}

// StoreOption configures a PersistentStore.
type StoreOption func(*PersistentStore)

// WithLogger sets the logger used for storage failures.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(ps *PersistentStore) {
		ps.logger = logger
	}
}

// NewPersistentStore rehydrates the session held by backend. A malformed stored
// session loads as logged out; an unreachable backend switches to memory only.
func NewPersistentStore(ctx context.Context, backend storage.KeyValue, opts ...StoreOption) *PersistentStore {
	ps := &PersistentStore{
		backend: backend,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(ps)
	}

	items, err := backend.Get(ctx, Keys...)
	switch {
	case errors.Is(err, storage.CorruptErr):
		ps.logger.Warn().Err(err).Msg("Stored session is unreadable, starting logged out")
		return ps
	case err != nil:
		ps.degrade(err)
		return ps
	}

	s, err := decode(items)
	if err != nil {
		ps.logger.Warn().Err(err).Msg("Stored session is malformed, starting logged out")
		return ps
	}
	ps.current = s
	return ps
}

// NewMemoryStore returns a store that never persists.
func NewMemoryStore() *PersistentStore {
	return NewPersistentStore(context.Background(), storage.NewMemory())
}

func (ps *PersistentStore) Save(ctx context.Context, s Session) {
	if s.IsAuthenticated() && s.User == nil {
		ps.logger.Error().Msg("Refusing to save a session without a user profile")
		return
	}
	s = s.Clone()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.write(ctx, s)
	ps.current = s
}

func (ps *PersistentStore) Load(_ context.Context) Session {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.current.Clone()
}

func (ps *PersistentStore) Clear(ctx context.Context) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.write(ctx, Session{})
	ps.current = Session{}
}

func (ps *PersistentStore) IsAuthenticated(_ context.Context) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.current.IsAuthenticated()
}

func (ps *PersistentStore) UpdateTokens(ctx context.Context, usedRefresh, accessToken, newRefresh string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.current.IsAuthenticated() || ps.current.RefreshToken != usedRefresh {
		return false
	}
	if newRefresh == "" {
		newRefresh = ps.current.RefreshToken
	}
	next := New(accessToken, newRefresh, ps.current.User)
	ps.write(ctx, next)
	ps.current = next
	return true
}

// Degraded reports whether the store has fallen back to memory only.
func (ps *PersistentStore) Degraded() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.degraded
}

// write persists s; the caller holds the write lock.
func (ps *PersistentStore) write(ctx context.Context, s Session) {
	if ps.degraded {
		return
	}
	set, remove, err := encode(s)
	if err != nil {
		ps.logger.Error().Err(err).Msg("Failed to encode session")
		return
	}
	if err := ps.backend.Update(ctx, set, remove...); err != nil {
		ps.degrade(err)
	}
}

func (ps *PersistentStore) degrade(err error) {
	ps.degraded = true
	ps.logger.Warn().Err(err).Msg("Session storage unavailable, keeping session in memory only")
}

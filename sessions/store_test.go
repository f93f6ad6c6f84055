package sessions_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/jrsteele09/ats-client/storage"
	"github.com/jrsteele09/ats-client/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKeyValue struct {
	updates int
}

func (f *failingKeyValue) Get(context.Context, ...string) (map[string]string, error) {
	return nil, fmt.Errorf("%w: disk gone", storage.UnavailableErr)
}

func (f *failingKeyValue) Update(context.Context, map[string]string, ...string) error {
	f.updates++
	return fmt.Errorf("%w: disk gone", storage.UnavailableErr)
}

func (f *failingKeyValue) Close() error { return nil }

// readOnlyKeyValue reads fine but rejects every write.
type readOnlyKeyValue struct {
	storage.KeyValue
}

func (r *readOnlyKeyValue) Update(context.Context, map[string]string, ...string) error {
	return fmt.Errorf("%w: read-only", storage.UnavailableErr)
}

func coachSession() sessions.Session {
	return sessions.New("access-A", "refresh-R", &users.UserProfile{
		ID:         "7",
		Username:   "coach.carter",
		Email:      utils.Ptr("carter@example.com"),
		Role:       users.RoleCoach,
		Discipline: utils.Ptr("athletics"),
		Active:     utils.Ptr(true),
	})
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()

	require.False(t, store.IsAuthenticated(ctx))
	require.Equal(t, sessions.Session{}, store.Load(ctx))

	saved := coachSession()
	store.Save(ctx, saved)

	require.True(t, store.IsAuthenticated(ctx))
	require.Equal(t, saved, store.Load(ctx))
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()
	store.Save(ctx, coachSession())

	loaded := store.Load(ctx)
	loaded.User.Username = "mallory"

	require.Equal(t, "coach.carter", store.Load(ctx).User.Username)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()
	store.Save(ctx, coachSession())

	store.Clear(ctx)

	require.False(t, store.IsAuthenticated(ctx))
	require.Equal(t, sessions.Session{}, store.Load(ctx))
}

func TestStore_SaveWithoutProfileIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()

	store.Save(ctx, sessions.Session{AccessToken: "orphan"})

	require.False(t, store.IsAuthenticated(ctx))
}

func TestStore_Rehydrates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first := sessions.NewPersistentStore(ctx, storage.NewFile(path))
	first.Save(ctx, coachSession())

	second := sessions.NewPersistentStore(ctx, storage.NewFile(path))
	require.True(t, second.IsAuthenticated(ctx))
	require.Equal(t, coachSession(), second.Load(ctx))

	second.Clear(ctx)
	third := sessions.NewPersistentStore(ctx, storage.NewFile(path))
	require.False(t, third.IsAuthenticated(ctx))
}

func TestStore_RehydratesLocalEmailAddress(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	s := coachSession()
	s.User.Email = utils.Ptr("coach@localhost")
	sessions.NewPersistentStore(ctx, kv).Save(ctx, s)

	loaded := sessions.NewPersistentStore(ctx, kv).Load(ctx)
	require.True(t, loaded.IsAuthenticated())
	require.Equal(t, "coach@localhost", utils.Value(loaded.User.Email))
}

func TestStore_RehydratesWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	s := coachSession()
	s.RefreshToken = ""
	sessions.NewPersistentStore(ctx, kv).Save(ctx, s)

	loaded := sessions.NewPersistentStore(ctx, kv).Load(ctx)
	require.Equal(t, "access-A", loaded.AccessToken)
	require.Empty(t, loaded.RefreshToken)
}

func TestStore_MalformedLoadsEmpty(t *testing.T) {
	validUser := `{"id":7,"username":"coach.carter","role":"coach"}`

	tests := []struct {
		name  string
		items map[string]string
	}{
		{
			name:  "Missing version",
			items: map[string]string{sessions.KeyAccessToken: "A", sessions.KeyUser: validUser},
		},
		{
			name: "Unknown version",
			items: map[string]string{
				sessions.KeyVersion: "99", sessions.KeyAccessToken: "A", sessions.KeyUser: validUser,
			},
		},
		{
			name:  "Token without profile",
			items: map[string]string{sessions.KeyVersion: "1", sessions.KeyAccessToken: "A"},
		},
		{
			name:  "Profile without token",
			items: map[string]string{sessions.KeyVersion: "1", sessions.KeyUser: validUser},
		},
		{
			name: "Profile is not JSON",
			items: map[string]string{
				sessions.KeyVersion: "1", sessions.KeyAccessToken: "A", sessions.KeyUser: "{oops",
			},
		},
		{
			name: "Profile has unknown role",
			items: map[string]string{
				sessions.KeyVersion: "1", sessions.KeyAccessToken: "A",
				sessions.KeyUser: `{"id":7,"username":"coach.carter","role":"superuser"}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemory()
			require.NoError(t, kv.Update(ctx, tt.items))

			store := sessions.NewPersistentStore(ctx, kv)
			require.False(t, store.IsAuthenticated(ctx))
			require.Equal(t, sessions.Session{}, store.Load(ctx))
			require.False(t, store.Degraded())
		})
	}
}

func TestStore_DegradesToMemory(t *testing.T) {
	ctx := context.Background()
	kv := &failingKeyValue{}

	store := sessions.NewPersistentStore(ctx, kv)
	require.True(t, store.Degraded())

	store.Save(ctx, coachSession())
	require.True(t, store.IsAuthenticated(ctx))
	require.Equal(t, coachSession(), store.Load(ctx))

	store.Clear(ctx)
	require.False(t, store.IsAuthenticated(ctx))
	require.Zero(t, kv.updates)
}

func TestStore_DegradesOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := &readOnlyKeyValue{KeyValue: storage.NewMemory()}

	store := sessions.NewPersistentStore(ctx, kv)
	require.False(t, store.Degraded())

	store.Save(ctx, coachSession())
	require.True(t, store.Degraded())
	require.True(t, store.IsAuthenticated(ctx))

	store.Clear(ctx)
	require.False(t, store.IsAuthenticated(ctx))
}

func TestStore_UpdateTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps refresh token when not rotated", func(t *testing.T) {
		store := sessions.NewMemoryStore()
		store.Save(ctx, coachSession())

		require.True(t, store.UpdateTokens(ctx, "refresh-R", "access-B", ""))
		s := store.Load(ctx)
		require.Equal(t, "access-B", s.AccessToken)
		require.Equal(t, "refresh-R", s.RefreshToken)
		require.Equal(t, users.RoleCoach, s.Role())
	})

	t.Run("Stores rotated refresh token", func(t *testing.T) {
		store := sessions.NewMemoryStore()
		store.Save(ctx, coachSession())

		require.True(t, store.UpdateTokens(ctx, "refresh-R", "access-B", "refresh-S"))
		require.Equal(t, "refresh-S", store.Load(ctx).RefreshToken)
	})

	t.Run("Rejects stale refresh token", func(t *testing.T) {
		store := sessions.NewMemoryStore()
		store.Save(ctx, coachSession())

		require.False(t, store.UpdateTokens(ctx, "refresh-old", "access-B", ""))
		require.Equal(t, "access-A", store.Load(ctx).AccessToken)
	})

	t.Run("Rejects after clear", func(t *testing.T) {
		store := sessions.NewMemoryStore()
		store.Save(ctx, coachSession())
		store.Clear(ctx)

		require.False(t, store.UpdateTokens(ctx, "refresh-R", "access-B", ""))
		require.False(t, store.IsAuthenticated(ctx))
	})
}

func TestStore_ConcurrentReadersSeeWholeSessions(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					store.Save(ctx, coachSession())
				} else {
					store.Clear(ctx)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				s := store.Load(ctx)
				assert.Equal(t, s.AccessToken != "", s.User != nil)
			}
		}()
	}
	wg.Wait()
}

package mockapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/ats-client/auth"
	"github.com/jrsteele09/ats-client/authapi"
	"github.com/jrsteele09/ats-client/gateway"
	apperrors "github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/mockapi"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/jrsteele09/ats-client/token"
	"github.com/jrsteele09/ats-client/users"
	fakeuserrepo "github.com/jrsteele09/ats-client/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	accessTTL  = 5 * time.Minute
	refreshTTL = 24 * time.Hour
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	clock     *clock
	repo      *fakeuserrepo.FakeUserRepo
	mock      *mockapi.Server
	api       *authapi.Client
	store     *sessions.PersistentStore
	auth      *auth.Service
	resources *resources.Client
	refreshes atomic.Int32
}

func setupTestFixture(t *testing.T, opts ...mockapi.ServerOption) *testFixture {
	t.Helper()
	f := &testFixture{
		clock: &clock{now: time.Now().Truncate(time.Second)},
		repo:  fakeuserrepo.NewFakeUserRepo(),
	}
	issuer := token.NewIssuer("e2e-secret", accessTTL, refreshTTL, token.WithNowTime(f.clock.Now))
	opts = append([]mockapi.ServerOption{mockapi.WithLogger(zerolog.Nop()), mockapi.WithRefreshRotation(true)}, opts...)
	f.mock = mockapi.New(issuer, f.repo, opts...)
	require.NoError(t, f.mock.Seed())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == mockapi.RouteRefresh {
			f.refreshes.Add(1)
		}
		f.mock.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	f.api = authapi.NewClient(server.URL)
	f.store = sessions.NewMemoryStore()
	f.auth = auth.NewService(f.api, f.store, auth.WithLogger(zerolog.Nop()))
	gw := gateway.New(server.URL, f.store, f.api, gateway.WithLogger(zerolog.Nop()))
	f.resources = resources.NewClient(gw)
	return f
}

func (f *testFixture) login(t *testing.T, username string) *users.UserProfile {
	t.Helper()
	user, err := f.auth.Login(context.Background(), username, mockapi.DefaultPassword)
	require.NoError(t, err)
	return user
}

func (f *testFixture) userID(t *testing.T, username string) string {
	t.Helper()
	user, err := f.repo.GetByUsername(username)
	require.NoError(t, err)
	return user.ID
}

func TestLogin(t *testing.T) {
	t.Run("Seeded roles", func(t *testing.T) {
		for _, tt := range []struct {
			username string
			role     users.RoleType
		}{
			{mockapi.DefaultAdminUsername, users.RoleAdmin},
			{mockapi.DefaultCoachUsername, users.RoleCoach},
			{mockapi.DefaultAthleteUsername, users.RoleAthlete},
		} {
			f := setupTestFixture(t)
			user := f.login(t, tt.username)
			require.Equal(t, tt.role, user.Role)
			require.Equal(t, tt.username, user.Username)

			s := f.store.Load(context.Background())
			require.NotEmpty(t, s.AccessToken)
			require.NotEmpty(t, s.RefreshToken)
			require.Equal(t, f.clock.Now().Add(accessTTL), token.ExpiresAt(s.AccessToken))
		}
	})

	t.Run("Wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.auth.Login(context.Background(), mockapi.DefaultAdminUsername, "nope")
		require.Equal(t, gateway.KindCredential, gateway.KindOf(err))
		require.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
		require.False(t, f.store.IsAuthenticated(context.Background()))
	})

	t.Run("Inactive account", func(t *testing.T) {
		f := setupTestFixture(t)
		user, err := f.repo.GetByUsername(mockapi.DefaultCoachUsername)
		require.NoError(t, err)
		inactive := false
		user.Active = &inactive
		require.NoError(t, f.repo.Upsert(user))

		_, err = f.auth.Login(context.Background(), mockapi.DefaultCoachUsername, mockapi.DefaultPassword)
		require.Equal(t, gateway.KindCredential, gateway.KindOf(err))
	})
}

func TestTransparentRefresh(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAdminUsername)
	before := f.store.Load(ctx)

	f.clock.Advance(accessTTL + time.Minute)

	accounts, err := f.resources.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, int32(1), f.refreshes.Load())

	after := f.store.Load(ctx)
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, before.User, after.User)

	// The rotated-out refresh credential is dead
	_, err = f.api.Refresh(ctx, before.RefreshToken)
	var retrieveErr *oauth2.RetrieveError
	require.True(t, errors.As(err, &retrieveErr))
	require.Equal(t, "token_not_valid", retrieveErr.ErrorCode)
}

func TestTransparentRefresh_WithoutRotation(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, mockapi.WithRefreshRotation(false))
	f.login(t, mockapi.DefaultCoachUsername)
	before := f.store.Load(ctx)

	f.clock.Advance(accessTTL + time.Minute)

	_, err := f.resources.ListTests(ctx)
	require.NoError(t, err)

	after := f.store.Load(ctx)
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.Equal(t, before.RefreshToken, after.RefreshToken)
}

func TestTransparentRefresh_ConcurrentCallsShareOneExchange(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAdminUsername)
	f.clock.Advance(accessTTL + time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tests, err := f.resources.ListTests(ctx)
			assert.NoError(t, err)
			assert.Len(t, tests, 3)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), f.refreshes.Load())
	require.True(t, f.store.IsAuthenticated(ctx))
}

func TestRefreshExpiredEndsSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAdminUsername)

	f.clock.Advance(refreshTTL + time.Hour)

	_, err := f.resources.ListUsers(ctx)
	require.Error(t, err)
	require.True(t, gateway.SessionEnded(err))
	require.Equal(t, gateway.KindRefreshFailed, gateway.KindOf(err))
	require.False(t, f.store.IsAuthenticated(ctx))
	require.Equal(t, int32(1), f.refreshes.Load())
}

func TestLogoutRevokesCredentials(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAthleteUsername)
	before := f.store.Load(ctx)

	f.auth.Logout(ctx)
	require.False(t, f.store.IsAuthenticated(ctx))

	_, err := f.api.Profile(ctx, before.AccessToken)
	require.Equal(t, http.StatusUnauthorized, gateway.StatusOf(err))

	_, err = f.api.Refresh(ctx, before.RefreshToken)
	var retrieveErr *oauth2.RetrieveError
	require.True(t, errors.As(err, &retrieveErr))
}

func TestRoleScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("Coach cannot list users", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, mockapi.DefaultCoachUsername)

		_, err := f.resources.ListUsers(ctx)
		require.Equal(t, gateway.KindHTTP, gateway.KindOf(err))
		require.Equal(t, http.StatusForbidden, gateway.StatusOf(err))
		require.True(t, f.store.IsAuthenticated(ctx))
	})

	t.Run("Coach sees own athlete", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, mockapi.DefaultCoachUsername)

		dashboard, err := f.resources.AthleteDashboard(ctx, f.userID(t, mockapi.DefaultAthleteUsername))
		require.NoError(t, err)
		require.Equal(t, mockapi.DefaultAthleteUsername, dashboard.Username)
		require.Equal(t, mockapi.DefaultCoachUsername, dashboard.CoachName())
	})

	t.Run("Athlete sees only themselves", func(t *testing.T) {
		f := setupTestFixture(t)
		me := f.login(t, mockapi.DefaultAthleteUsername)

		results, err := f.resources.TestResults(ctx, me.ID)
		require.NoError(t, err)
		require.Len(t, results, 3)
		require.Equal(t, "30m Sprint", results[0].TestName)
		require.Equal(t, resources.UnitSeconds, results[0].TestUnit)
		require.InDelta(t, 4.35, results[0].NumericValue, 1e-9)
		require.NotNil(t, results[0].HigherIsBetter)
		require.False(t, *results[0].HigherIsBetter)

		other, err := f.mock.AddUser(users.UserProfile{Username: "other", Role: users.RoleAthlete}, "pw")
		require.NoError(t, err)
		_, err = f.resources.TestResults(ctx, other.ID)
		require.Equal(t, http.StatusForbidden, gateway.StatusOf(err))
	})

	t.Run("Unknown athlete", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, mockapi.DefaultAdminUsername)

		_, err := f.resources.AthleteDashboard(ctx, "missing")
		require.Equal(t, http.StatusNotFound, gateway.StatusOf(err))
	})
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAdminUsername)
	coachID := f.userID(t, mockapi.DefaultCoachUsername)

	err := f.resources.CreateUser(ctx, resources.AccountInput{
		Username:   "new.athlete",
		Email:      "new@ats.local",
		Password:   "secret-pw",
		Role:       users.RoleAthlete,
		Discipline: "hurdles",
		Active:     true,
		Coach:      coachID,
	})
	require.NoError(t, err)

	created, err := f.repo.GetByUsername("new.athlete")
	require.NoError(t, err)
	require.Equal(t, coachID, *created.Coach)
	require.True(t, users.CheckPasswordHash("secret-pw", created.PasswordHash))

	t.Run("Duplicate username", func(t *testing.T) {
		err := f.resources.CreateUser(ctx, resources.AccountInput{Username: "new.athlete", Password: "x", Role: users.RoleCoach})
		require.Equal(t, http.StatusBadRequest, gateway.StatusOf(err))
	})

	t.Run("Update keeps password when blank", func(t *testing.T) {
		err := f.resources.UpdateUser(ctx, created.ID, resources.AccountInput{
			Username: "new.athlete",
			Role:     users.RoleAthlete,
			Active:   false,
		})
		require.NoError(t, err)

		updated, err := f.repo.GetByUsername("new.athlete")
		require.NoError(t, err)
		require.False(t, updated.IsActive())
		require.Nil(t, updated.Coach)
		require.True(t, users.CheckPasswordHash("secret-pw", updated.PasswordHash))
	})

	t.Run("Coaches", func(t *testing.T) {
		coaches, err := f.resources.Coaches(ctx)
		require.NoError(t, err)
		require.Len(t, coaches, 1)
		require.Equal(t, coachID, coaches[0].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, f.resources.DeleteUser(ctx, created.ID))
		_, err := f.repo.GetByID(created.ID)
		require.True(t, errors.Is(err, users.UserNotFoundErr))

		err = f.resources.DeleteUser(ctx, created.ID)
		require.Equal(t, http.StatusNotFound, gateway.StatusOf(err))
	})
}

func TestLabTestAdministration(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, mockapi.DefaultAdminUsername)

	err := f.resources.CreateTest(ctx, resources.LabTest{
		Name:     "Beep Test",
		Category: resources.CategoryEndurance,
		Unit:     resources.UnitScore,
	})
	require.NoError(t, err)

	tests, err := f.resources.ListTests(ctx)
	require.NoError(t, err)
	require.Len(t, tests, 4)
	beep := tests[3]
	require.Equal(t, "Beep Test", beep.Name)
	require.NotEmpty(t, beep.ID)

	beep.HigherIsBetter = true
	require.NoError(t, f.resources.UpdateTest(ctx, beep.ID, beep))

	tests, err = f.resources.ListTests(ctx)
	require.NoError(t, err)
	require.True(t, tests[3].HigherIsBetter)

	require.NoError(t, f.resources.DeleteTest(ctx, beep.ID))
	err = f.resources.DeleteTest(ctx, beep.ID)
	require.Equal(t, http.StatusNotFound, gateway.StatusOf(err))
}

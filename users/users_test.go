package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/users"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_UnmarshalNumericIDs(t *testing.T) {
	var p users.UserProfile
	err := json.Unmarshal([]byte(`{"id": 42, "username": "ana", "role": "athlete", "coach": 7, "active": false}`), &p)
	require.NoError(t, err)

	require.Equal(t, "42", p.ID)
	require.Equal(t, "ana", p.Username)
	require.Equal(t, users.RoleAthlete, p.Role)
	require.Equal(t, "7", utils.Value(p.Coach))
	require.False(t, p.IsActive())
}

func TestUserProfile_UnmarshalStringIDs(t *testing.T) {
	var p users.UserProfile
	err := json.Unmarshal([]byte(`{"id": "u-1", "username": "carla", "role": "coach", "discipline": "athletics"}`), &p)
	require.NoError(t, err)

	require.Equal(t, "u-1", p.ID)
	require.Nil(t, p.Coach)
	require.Equal(t, "athletics", utils.Value(p.Discipline))
	require.True(t, p.IsActive())
}

func TestUserProfile_Validate(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		p := &users.UserProfile{ID: "1", Username: "admin", Role: users.RoleAdmin, Email: utils.Ptr("admin@ats.test")}
		require.NoError(t, p.Validate())
	})

	t.Run("missing role", func(t *testing.T) {
		p := &users.UserProfile{ID: "1", Username: "admin"}
		require.Error(t, p.Validate())
	})

	t.Run("unknown role", func(t *testing.T) {
		p := &users.UserProfile{ID: "1", Username: "admin", Role: "physio"}
		require.Error(t, p.Validate())
	})

	t.Run("server-accepted email forms", func(t *testing.T) {
		for _, email := range []string{"coach@localhost", "coach@ats", "not-an-email"} {
			p := &users.UserProfile{Username: "coach", Role: users.RoleCoach, Email: utils.Ptr(email)}
			require.NoError(t, p.Validate(), email)
		}
	})

	t.Run("nil", func(t *testing.T) {
		var p *users.UserProfile
		require.Error(t, p.Validate())
	})
}

func TestUserProfile_Clone(t *testing.T) {
	p := &users.UserProfile{ID: "1", Username: "ana", Role: users.RoleAthlete, Discipline: utils.Ptr("swimming")}
	c := p.Clone()
	require.Equal(t, p, c)

	*c.Discipline = "rowing"
	require.Equal(t, "swimming", *p.Discipline)
}

func TestRoleType(t *testing.T) {
	require.True(t, users.RoleCoach.Valid())
	require.False(t, users.RoleType("root").Valid())
	require.Equal(t, "admin-dashboard", users.RoleAdmin.HomeView())
	require.Equal(t, "athlete-dashboard", users.RoleAthlete.HomeView())
	require.Equal(t, "login", users.RoleType("").HomeView())

	p := &users.UserProfile{Role: users.RoleCoach}
	require.True(t, p.HasRole(users.RoleAdmin, users.RoleCoach))
	require.False(t, p.HasRole(users.RoleAthlete))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Sprint2024")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Sprint2024", hash))
	require.False(t, users.CheckPasswordHash("sprint2024", hash))
}

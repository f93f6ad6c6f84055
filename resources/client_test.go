package resources_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   string
}

// fakeDoer answers every call with a canned JSON body and records what was sent.
type fakeDoer struct {
	response string
	err      error
	calls    []call
}

func (f *fakeDoer) DoJSON(_ context.Context, method, path string, in, out any) error {
	c := call{method: method, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		c.body = string(data)
	}
	f.calls = append(f.calls, c)
	if f.err != nil {
		return f.err
	}
	if out == nil || f.response == "" {
		return nil
	}
	return json.Unmarshal([]byte(f.response), out)
}

func setupTestFixture(t *testing.T, response string) (*fakeDoer, *resources.Client) {
	t.Helper()
	doer := &fakeDoer{response: response}
	return doer, resources.NewClient(doer)
}

func TestTestResults(t *testing.T) {
	t.Run("Flat fields with numeric value", func(t *testing.T) {
		doer, client := setupTestFixture(t, `{"test_results":[{"id":7,"test_name":"Plank","test_unit":"seconds","test_category":"endurance","test_higher_is_better":true,"numeric_value":95,"date_recorded":"2026-01-10"}]}`)

		results, err := client.TestResults(context.Background(), "12")
		require.NoError(t, err)
		require.Equal(t, "/dashboard/test-results/12/", doer.calls[0].path)
		require.Len(t, results, 1)
		require.Equal(t, "7", results[0].ID)
		require.Equal(t, "Plank", results[0].TestName)
		require.Equal(t, 95.0, results[0].NumericValue)
		require.True(t, *results[0].HigherIsBetter)
	})

	t.Run("Nested test with decimal string", func(t *testing.T) {
		_, client := setupTestFixture(t, `{"test_results":[{"id":"a","test":{"id":3,"name":"Vertical Jump","unit":"centimeters","category":"strength","higher_is_better":true},"numeric_value":"58.50"}]}`)

		results, err := client.TestResults(context.Background(), "12")
		require.NoError(t, err)
		require.Equal(t, "Vertical Jump", results[0].TestName)
		require.Equal(t, resources.CategoryStrength, results[0].TestCategory)
		require.Equal(t, 58.5, results[0].NumericValue)
	})

	t.Run("Bad decimal", func(t *testing.T) {
		_, client := setupTestFixture(t, `{"test_results":[{"numeric_value":"fast"}]}`)

		_, err := client.TestResults(context.Background(), "12")
		require.Error(t, err)
	})

	t.Run("None recorded", func(t *testing.T) {
		_, client := setupTestFixture(t, `{}`)

		results, err := client.TestResults(context.Background(), "12")
		require.NoError(t, err)
		require.NotNil(t, results)
		require.Empty(t, results)
	})
}

func TestAthleteDashboard(t *testing.T) {
	t.Run("Coach username only", func(t *testing.T) {
		_, client := setupTestFixture(t, `{"athlete":{"id":4,"username":"sam","role":"athlete","coach":2,"coach_username":"carter"}}`)

		dashboard, err := client.AthleteDashboard(context.Background(), "4")
		require.NoError(t, err)
		require.Equal(t, "4", dashboard.ID)
		require.Equal(t, "2", *dashboard.Coach)
		require.Nil(t, dashboard.CoachDetails)
		require.Equal(t, "carter", dashboard.CoachName())
	})

	t.Run("Missing athlete", func(t *testing.T) {
		_, client := setupTestFixture(t, `{}`)

		_, err := client.AthleteDashboard(context.Background(), "4")
		require.True(t, errors.Is(err, resources.NotFoundErr))
	})

	t.Run("Id is escaped", func(t *testing.T) {
		doer, client := setupTestFixture(t, `{"athlete":{"id":1,"username":"x","role":"athlete"}}`)

		_, err := client.AthleteDashboard(context.Background(), "a/b")
		require.NoError(t, err)
		require.Equal(t, "/dashboard/athlete-dashboard/a%2Fb/", doer.calls[0].path)
	})
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input resources.AccountInput
	}{
		{name: "No password", input: resources.AccountInput{Username: "u", Role: users.RoleCoach}},
		{name: "No username", input: resources.AccountInput{Password: "p", Role: users.RoleCoach}},
		{name: "Unknown role", input: resources.AccountInput{Username: "u", Password: "p", Role: "owner"}},
		{name: "Bad email", input: resources.AccountInput{Username: "u", Password: "p", Role: users.RoleCoach, Email: "nope"}},
		{name: "Bad date of birth", input: resources.AccountInput{Username: "u", Password: "p", Role: users.RoleAthlete, DateOfBirth: "17/05/2004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer, client := setupTestFixture(t, "")

			err := client.CreateUser(context.Background(), tt.input)
			require.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			require.Empty(t, doer.calls)
		})
	}
}

func TestUpdateUser_OmitsBlankPassword(t *testing.T) {
	doer, client := setupTestFixture(t, "")

	err := client.UpdateUser(context.Background(), "9", resources.AccountInput{Username: "sam", Role: users.RoleAthlete, Active: true})
	require.NoError(t, err)
	require.Equal(t, "PUT", doer.calls[0].method)
	require.Equal(t, "/custom_auth/update/9/", doer.calls[0].path)
	require.NotContains(t, doer.calls[0].body, "password")
}

func TestCreateTest_ClearsID(t *testing.T) {
	doer, client := setupTestFixture(t, "")

	err := client.CreateTest(context.Background(), resources.LabTest{ID: "5", Name: "Sprint", Category: resources.CategorySpeed, Unit: resources.UnitSeconds})
	require.NoError(t, err)
	require.NotContains(t, doer.calls[0].body, `"id"`)

	err = client.CreateTest(context.Background(), resources.LabTest{Name: "Sprint", Category: "magic", Unit: resources.UnitSeconds})
	require.True(t, errors.Is(err, resources.InvalidInputErr))
}

func TestListUsers_PropagatesErrors(t *testing.T) {
	doer, client := setupTestFixture(t, "")
	doer.err = apperrors.ErrTransport

	_, err := client.ListUsers(context.Background())
	require.True(t, errors.Is(err, apperrors.ErrTransport))
}

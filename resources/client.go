package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/ats-client/users"
	"github.com/pkg/errors"
)

// Paths are the resource endpoints. %s marks the slot for a record id.
type Paths struct {
	UserList         string
	UserCreate       string
	UserUpdate       string
	UserDelete       string
	TestList         string
	TestCreate       string
	TestUpdate       string
	TestDelete       string
	AthleteDashboard string
	TestResults      string
}

func DefaultPaths() Paths {
	return Paths{
		UserList:         "/custom_auth/list/",
		UserCreate:       "/custom_auth/register/",
		UserUpdate:       "/custom_auth/update/%s/",
		UserDelete:       "/custom_auth/delete/%s/",
		TestList:         "/lab/list/",
		TestCreate:       "/lab/create/",
		TestUpdate:       "/lab/update/%s/",
		TestDelete:       "/lab/delete/%s/",
		AthleteDashboard: "/dashboard/athlete-dashboard/%s/",
		TestResults:      "/dashboard/test-results/%s/",
	}
}

// Doer sends a JSON call through the authenticated gateway.
type Doer interface {
	DoJSON(ctx context.Context, method, path string, in, out any) error
}

// Client reads and edits the ATS resources. Every call goes through the gateway, so it
// carries the session's credential and survives an access token expiring mid-session.
type Client struct {
	api   Doer
	paths Paths
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithPaths(paths Paths) ClientOption {
	return func(c *Client) {
		c.paths = paths
	}
}

func NewClient(api Doer, opts ...ClientOption) *Client {
	c := &Client{
		api:   api,
		paths: DefaultPaths(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListUsers(ctx context.Context) ([]Account, error) {
	var body struct {
		Users []Account `json:"Users"`
	}
	if err := c.api.DoJSON(ctx, http.MethodGet, c.paths.UserList, nil, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.ListUsers]")
	}
	return body.Users, nil
}

// Coaches returns the accounts with the coach role, for assigning athletes.
func (c *Client) Coaches(ctx context.Context) ([]Account, error) {
	accounts, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var coaches []Account
	for _, a := range accounts {
		if a.Role == users.RoleCoach {
			coaches = append(coaches, a)
		}
	}
	return coaches, nil
}

func (c *Client) CreateUser(ctx context.Context, in AccountInput) error {
	if in.Password == "" {
		return errors.Wrap(InvalidInputErr, "password is required for a new user")
	}
	if err := validate(in); err != nil {
		return err
	}
	if err := c.api.DoJSON(ctx, http.MethodPost, c.paths.UserCreate, in, nil); err != nil {
		return errors.Wrap(err, "[Client.CreateUser]")
	}
	return nil
}

// UpdateUser replaces the user's fields. An empty password keeps the current one.
func (c *Client) UpdateUser(ctx context.Context, id string, in AccountInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if err := c.api.DoJSON(ctx, http.MethodPut, c.path(c.paths.UserUpdate, id), in, nil); err != nil {
		return errors.Wrap(err, "[Client.UpdateUser]")
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, c.path(c.paths.UserDelete, id), nil, nil); err != nil {
		return errors.Wrap(err, "[Client.DeleteUser]")
	}
	return nil
}

func (c *Client) ListTests(ctx context.Context) ([]LabTest, error) {
	var body struct {
		Tests []LabTest `json:"tests"`
	}
	if err := c.api.DoJSON(ctx, http.MethodGet, c.paths.TestList, nil, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.ListTests]")
	}
	return body.Tests, nil
}

func (c *Client) CreateTest(ctx context.Context, test LabTest) error {
	if err := validate(test); err != nil {
		return err
	}
	test.ID = ""
	if err := c.api.DoJSON(ctx, http.MethodPost, c.paths.TestCreate, test, nil); err != nil {
		return errors.Wrap(err, "[Client.CreateTest]")
	}
	return nil
}

func (c *Client) UpdateTest(ctx context.Context, id string, test LabTest) error {
	if err := validate(test); err != nil {
		return err
	}
	test.ID = ""
	if err := c.api.DoJSON(ctx, http.MethodPut, c.path(c.paths.TestUpdate, id), test, nil); err != nil {
		return errors.Wrap(err, "[Client.UpdateTest]")
	}
	return nil
}

func (c *Client) DeleteTest(ctx context.Context, id string) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, c.path(c.paths.TestDelete, id), nil, nil); err != nil {
		return errors.Wrap(err, "[Client.DeleteTest]")
	}
	return nil
}

func (c *Client) AthleteDashboard(ctx context.Context, athleteID string) (*AthleteDashboard, error) {
	var body struct {
		Athlete *AthleteDashboard `json:"athlete"`
	}
	if err := c.api.DoJSON(ctx, http.MethodGet, c.path(c.paths.AthleteDashboard, athleteID), nil, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.AthleteDashboard]")
	}
	if body.Athlete == nil {
		return nil, errors.Wrapf(NotFoundErr, "athlete %s", athleteID)
	}
	return body.Athlete, nil
}

// TestResults returns the athlete's results; none is an empty slice, not an error.
func (c *Client) TestResults(ctx context.Context, athleteID string) ([]TestResult, error) {
	var body struct {
		TestResults []TestResult `json:"test_results"`
	}
	if err := c.api.DoJSON(ctx, http.MethodGet, c.path(c.paths.TestResults, athleteID), nil, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.TestResults]")
	}
	if body.TestResults == nil {
		return []TestResult{}, nil
	}
	return body.TestResults, nil
}

func (c *Client) path(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}

func validate(v any) error {
	if err := users.Validator().Struct(v); err != nil {
		return errors.Wrap(InvalidInputErr, err.Error())
	}
	return nil
}

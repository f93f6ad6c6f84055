package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/ats-client/gateway"
	apperrors "github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/jrsteele09/ats-client/users"
	"golang.org/x/oauth2"
)

// Endpoints are the auth contract paths relative to the base URL.
type Endpoints struct {
	Login   string
	Profile string
	Refresh string
	Logout  string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:   "/custom_auth/login/",
		Profile: "/custom_auth/profile/",
		Refresh: "/custom_auth/token/refresh/",
		Logout:  "/custom_auth/logout/",
	}
}

var _ gateway.Refresher = (*Client)(nil)

// Client speaks the auth endpoints directly. It does not go through the gateway: these
// calls either carry an explicit credential or are the refresh step itself.
type Client struct {
	baseURL   string
	endpoints Endpoints
	client    *http.Client
	nowTime   func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithEndpoints(endpoints Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: DefaultEndpoints(),
		client:    &http.Client{Timeout: 15 * time.Second},
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for tokens. A 400 or 401 is reported as KindCredential.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	resp, err := c.post(ctx, c.endpoints.Login, "", creds)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, c.statusError(gateway.KindCredential, resp, apperrors.ErrInvalidCredentials)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(gateway.KindHTTP, resp, apperrors.ErrServer)
	}

	var login LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, c.malformed(resp, err)
	}
	if login.AccessToken() == "" {
		return nil, c.malformed(resp, fmt.Errorf("no access credential in response"))
	}
	return &login, nil
}

// Profile fetches the profile of the owner of accessToken.
func (c *Client) Profile(ctx context.Context, accessToken string) (*users.UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoints.Profile, accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(gateway.KindHTTP, resp, apperrors.ErrServer)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.malformed(resp, err)
	}
	var profile users.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, c.malformed(resp, err)
	}
	// Some backends wrap the profile as {"user": {...}}
	if profile.Role == "" {
		var wrapped struct {
			User *users.UserProfile `json:"user"`
		}
		if json.Unmarshal(data, &wrapped) == nil && wrapped.User != nil {
			profile = *wrapped.User
		}
	}
	return &profile, nil
}

// Refresh exchanges refreshToken for a new access credential. Rejections come back
// as *oauth2.RetrieveError; transport failures as a gateway.Error.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	resp, err := c.post(ctx, c.endpoints.Refresh, "", refreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.malformed(resp, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retrieveErr := &oauth2.RetrieveError{Response: resp, Body: body}
		var e errorResponse
		if json.Unmarshal(body, &e) == nil {
			retrieveErr.ErrorCode = firstNonEmpty(e.Code, e.Error, "invalid_grant")
			retrieveErr.ErrorDescription = firstNonEmpty(e.Description, e.Detail)
		}
		return nil, retrieveErr
	}

	var r refreshResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, c.malformed(resp, err)
	}
	tok := &oauth2.Token{
		AccessToken:  firstNonEmpty(r.Access, r.AccessToken),
		RefreshToken: firstNonEmpty(r.Refresh, r.RefreshToken),
		TokenType:    "Bearer",
	}
	if tok.AccessToken == "" {
		return nil, c.malformed(resp, fmt.Errorf("no access credential in response"))
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = c.nowTime().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Logout tells the server to invalidate the session. Either credential may be empty.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	resp, err := c.post(ctx, c.endpoints.Logout, accessToken, logoutRequest{Refresh: refreshToken})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(gateway.KindHTTP, resp, apperrors.ErrServer)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, accessToken, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Client.newRequest] encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("[Client.newRequest]: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		sessions.Session{AccessToken: accessToken}.Token().SetAuthHeader(req)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &gateway.Error{
			Kind:   gateway.KindTransport,
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    fmt.Errorf("%w: %w", apperrors.ErrTransport, err),
		}
	}
	return resp, nil
}

func (c *Client) statusError(kind gateway.Kind, resp *http.Response, cause error) *gateway.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &gateway.Error{
		Kind:       kind,
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
		Err:        cause,
	}
}

func (c *Client) malformed(resp *http.Response, err error) *gateway.Error {
	return &gateway.Error{
		Kind:       gateway.KindOther,
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

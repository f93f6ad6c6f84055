package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a per-call identifier. A retried call reuses it, and a
// caller-set value is kept.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of a failing response is kept on an Error.
const maxErrorBody = 64 << 10

// Refresher exchanges a refresh token for new credentials.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Gateway is the single path for authenticated API calls. It attaches the session's
// access token, and on a 401 renews the token once and retries the call once.
type Gateway struct {
	baseURL   string
	client    *http.Client
	store     sessions.Store
	refresher Refresher
	rotate    bool
	limiter   *rate.Limiter
	refreshes singleflight.Group
	logger    zerolog.Logger
}

// Option defines a function type to modify the Gateway instance.
type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRateLimit caps outgoing requests at rps per second. Zero or less disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithRefreshRotation controls whether a refresh token returned by the refresh
// endpoint replaces the stored one. Enabled by default.
func WithRefreshRotation(rotate bool) Option {
	return func(g *Gateway) {
		g.rotate = rotate
	}
}

// New returns a Gateway sending requests relative to baseURL.
func New(baseURL string, store sessions.Store, refresher Refresher, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: defaultTimeout},
		store:     store,
		refresher: refresher,
		rotate:    true,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (g *Gateway) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return g.baseURL + "/" + strings.TrimLeft(path, "/")
}

// NewRequest builds a request for path with body encoded as JSON. A nil body sends none.
func (g *Gateway) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[Gateway.NewRequest] encode body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.URL(path), reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.NewRequest]")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do sends req with the current access token. Responses other than 401 are returned
// as they are, whatever their status. A 401 is absorbed only when a refresh followed
// by one retry succeeds; otherwise the session is cleared and an Error of kind
// KindAuthExpired or KindRefreshFailed is returned. A transport failure returns an
// Error of kind KindTransport and leaves the session alone.
//
// req itself is not modified: every attempt is sent on a clone. A body without
// GetBody is read up front so it can be replayed.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	body, err := replayable(req)
	if err != nil {
		return nil, g.failure(KindOther, req, nil, err)
	}
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	send := func(s sessions.Session) (*http.Response, error) {
		return g.dispatch(req, requestID, body, s)
	}

	current := g.store.Load(ctx)
	sent := current.AccessToken
	resp, err := send(current)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	failed := drain(resp)

	// From here on the call has used its one refresh.
	access, err := g.renew(ctx, sent)
	if err != nil {
		kind := KindAuthExpired
		if errors.Is(err, errRefreshExchange) {
			kind = KindRefreshFailed
		}
		g.endSession(ctx, sent)
		g.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Authorization could not be renewed, session cleared")
		return nil, &Error{Kind: kind, Method: req.Method, URL: req.URL.String(), StatusCode: http.StatusUnauthorized, Body: failed, Err: err}
	}

	resp, err = send(sessions.Session{AccessToken: access})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		failed = drain(resp)
		g.endSession(ctx, access)
		g.logger.Warn().Str("url", req.URL.String()).Msg("Retry was rejected after refresh, session cleared")
		return nil, &Error{Kind: KindAuthExpired, Method: req.Method, URL: req.URL.String(), StatusCode: http.StatusUnauthorized, Body: failed, Err: apperrors.ErrTokenExpired}
	}
	return resp, nil
}

// DoJSON sends in as the JSON body of a request to path and decodes a 2xx response
// into out. Any other status is returned as an Error of kind KindHTTP.
func (g *Gateway) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := g.NewRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := g.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindHTTP, Method: method, URL: req.URL.String(), StatusCode: resp.StatusCode, Body: drain(resp)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Kind: KindOther, Method: method, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)}
	}
	return nil
}

var errRefreshExchange = errors.New("refresh exchange failed")

// renew returns the access token to retry with. When another call has already
// replaced sent, the replacement is used without a new exchange.
func (g *Gateway) renew(ctx context.Context, sent string) (string, error) {
	if access, ok := g.replaced(ctx, sent); ok {
		return access, nil
	}
	used := g.store.Load(ctx).RefreshToken
	if used == "" {
		return "", apperrors.ErrNoRefreshToken
	}
	if g.refresher == nil {
		return "", errors.Wrap(apperrors.ErrNoRefreshToken, "no refresher configured")
	}

	// Detached so one caller giving up does not fail the others sharing this exchange
	shared := context.WithoutCancel(ctx)
	v, err, joined := g.refreshes.Do(used, func() (any, error) {
		// An exchange that finished just before this one started already did the work
		if access, ok := g.replaced(shared, sent); ok {
			return access, nil
		}

		tok, err := g.refresher.Refresh(shared, used)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errRefreshExchange, err)
		}
		if tok == nil || tok.AccessToken == "" {
			return "", fmt.Errorf("%w: %w", errRefreshExchange, apperrors.ErrMalformedResponse)
		}
		newRefresh := ""
		if g.rotate {
			newRefresh = tok.RefreshToken
		}
		if !g.store.UpdateTokens(shared, used, tok.AccessToken, newRefresh) {
			if access, ok := g.replaced(shared, sent); ok {
				return access, nil
			}
			return "", errors.Wrap(apperrors.ErrSessionNotFound, "session changed during refresh")
		}
		g.logger.Debug().Bool("rotated", newRefresh != "").Msg("Access token refreshed")
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if joined {
		g.logger.Debug().Msg("Joined in-flight token refresh")
	}
	return v.(string), nil
}

// replaced returns the stored access token when it is set and differs from sent.
func (g *Gateway) replaced(ctx context.Context, sent string) (string, bool) {
	current := g.store.Load(ctx).AccessToken
	return current, current != "" && current != sent
}

// endSession clears the store unless it already holds credentials other than token,
// which means a newer login or refresh must survive this failure.
func (g *Gateway) endSession(ctx context.Context, token string) {
	if current := g.store.Load(ctx); current.IsAuthenticated() && current.AccessToken != token {
		return
	}
	g.store.Clear(ctx)
}

// dispatch sends one attempt of req, as a clone carrying s's credential.
func (g *Gateway) dispatch(req *http.Request, requestID string, body func() (io.ReadCloser, error), s sessions.Session) (*http.Response, error) {
	ctx := req.Context()
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, g.failure(KindTransport, req, nil, err)
		}
	}

	attempt := req.Clone(ctx)
	if body != nil {
		rc, err := body()
		if err != nil {
			return nil, g.failure(KindOther, req, nil, err)
		}
		attempt.Body = rc
		attempt.GetBody = body
	}
	attempt.Header.Set(RequestIDHeader, requestID)
	attempt.Header.Del("Authorization")
	if s.IsAuthenticated() {
		s.Token().SetAuthHeader(attempt)
	}

	resp, err := g.client.Do(attempt)
	if err != nil {
		return nil, g.failure(KindTransport, req, nil, fmt.Errorf("%w: %w", apperrors.ErrTransport, err))
	}
	g.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("API call")
	return resp, nil
}

func (g *Gateway) failure(kind Kind, req *http.Request, body []byte, err error) *Error {
	return &Error{Kind: kind, Method: req.Method, URL: req.URL.String(), Body: body, Err: err}
}

// replayable returns a function yielding a fresh copy of req's body for each
// attempt, or nil when there is no body.
func replayable(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.Do] buffer body")
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// drain reads and closes resp's body, keeping at most maxErrorBody bytes.
func drain(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	return body
}

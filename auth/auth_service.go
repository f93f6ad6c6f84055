package auth

import (
	"context"

	"github.com/jrsteele09/ats-client/authapi"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/jrsteele09/ats-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API is the part of the backend the login flow talks to directly.
type API interface {
	Login(ctx context.Context, creds authapi.Credentials) (*authapi.LoginResponse, error)
	Profile(ctx context.Context, accessToken string) (*users.UserProfile, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

var _ API = (*authapi.Client)(nil)

// Service logs users in and out and answers who the current user is.
type Service struct {
	api    API
	store  sessions.Store
	logger zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(api API, store sessions.Store, opts ...ServiceOption) *Service {
	s := &Service{
		api:    api,
		store:  store,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges username and password for a session. The profile must carry a role
// before the session is saved: if the exchange response has none, the profile is
// fetched once with the new access token. On any failure the stored session is left
// as it was.
//
// Failures keep their gateway.Kind: KindCredential for rejected credentials,
// KindTransport when the server could not be reached.
func (s *Service) Login(ctx context.Context, username, password string) (*users.UserProfile, error) {
	creds := authapi.Credentials{Username: username, Password: password}
	if err := users.Validator().Struct(creds); err != nil {
		return nil, errors.Wrap(MissingCredentialsErr, err.Error())
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] credential exchange")
	}
	access := resp.AccessToken()

	profile := resp.Profile()
	if profile == nil {
		if profile, err = s.api.Profile(ctx, access); err != nil {
			return nil, errors.Wrap(err, "[Service.Login] profile fetch")
		}
	}
	if profile.Username == "" {
		profile.Username = username
	}
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(IncompleteProfileErr, err.Error())
	}

	session := sessions.New(access, resp.Refresh, profile)
	s.store.Save(ctx, session)
	s.logger.Info().Str("username", profile.Username).Str("role", string(profile.Role)).Msg("Logged in")
	return session.User.Clone(), nil
}

// Logout notifies the server on a best-effort basis and always clears the local session.
func (s *Service) Logout(ctx context.Context) {
	defer s.store.Clear(context.WithoutCancel(ctx))

	session := s.store.Load(ctx)
	if !session.IsAuthenticated() {
		return
	}
	if err := s.api.Logout(ctx, session.AccessToken, session.RefreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("Logout notification failed, clearing local session anyway")
	}
}

// CurrentUser returns the logged in user's profile, or NotAuthenticatedErr.
func (s *Service) CurrentUser(ctx context.Context) (*users.UserProfile, error) {
	session := s.store.Load(ctx)
	if !session.IsAuthenticated() {
		return nil, NotAuthenticatedErr
	}
	return session.User, nil
}

// Role returns the current role, or "" when logged out.
func (s *Service) Role(ctx context.Context) users.RoleType {
	return s.store.Load(ctx).Role()
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.store.IsAuthenticated(ctx)
}

// Session returns a copy of the current session.
func (s *Service) Session(ctx context.Context) sessions.Session {
	return s.store.Load(ctx)
}

// RequireRole returns the current user when their role is one of roles.
func (s *Service) RequireRole(ctx context.Context, roles ...users.RoleType) (*users.UserProfile, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(roles...) {
		return nil, errors.Wrapf(ForbiddenRoleErr, "%s may not do this", user.Role)
	}
	return user, nil
}

package sessions

import (
	"time"

	"github.com/jrsteele09/ats-client/token"
	"github.com/jrsteele09/ats-client/users"
	"golang.org/x/oauth2"
)

// Session is the client-held record of the authenticated identity.
// An empty AccessToken means logged out; a logged-in session always carries
// both an AccessToken and a User.
type Session struct {
	AccessToken  string             // Bearer credential attached to API calls
	RefreshToken string             // Optional, exchanged for a new AccessToken
	User         *users.UserProfile // Identity snapshot from the login or profile response

	// Expiry is read from the access credential when it is a JWT. It is informational:
	// refresh is driven by 401 responses, not by the clock.
	Expiry time.Time
}

// New builds a session from server-issued credentials and profile.
func New(accessToken, refreshToken string, user *users.UserProfile) Session {
	return Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Clone(),
		Expiry:       token.ExpiresAt(accessToken),
	}
}

func (s Session) IsAuthenticated() bool {
	return s.AccessToken != ""
}

// Token returns the access credential in its oauth2 form.
func (s Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
}

// Role returns the server-issued role, or "" when logged out.
func (s Session) Role() users.RoleType {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Clone returns a copy that shares nothing mutable with s.
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

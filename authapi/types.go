package authapi

import (
	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/users"
)

// Credentials are what the user types at the login prompt.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body of a successful credential exchange.
//
// The access credential arrives as "access", or as "token" from older backends. The
// refresh credential is optional. The profile is either nested under "user" or spread
// over the top-level fields; either may omit the role, in which case the caller must
// fetch the profile separately.
type LoginResponse struct {
	Access  string `json:"access,omitempty"`  // REQUIRED unless Token is set
	Token   string `json:"token,omitempty"`   // Older single-token field
	Refresh string `json:"refresh,omitempty"` // OPTIONAL

	User *users.UserProfile `json:"user,omitempty"` // OPTIONAL nested profile

	// OPTIONAL flat profile fields
	UserID     any            `json:"user_id,omitempty"`
	Username   string         `json:"username,omitempty"`
	Email      *string        `json:"email,omitempty"`
	Role       users.RoleType `json:"role,omitempty"`
	Discipline *string        `json:"discipline,omitempty"`
	Active     *bool          `json:"active,omitempty"`
}

// AccessToken returns the access credential under whichever field carried it.
func (r *LoginResponse) AccessToken() string {
	if r.Access != "" {
		return r.Access
	}
	return r.Token
}

// Profile returns the profile embedded in the response, or nil when it carries no role.
func (r *LoginResponse) Profile() *users.UserProfile {
	if r.User != nil && r.User.Role != "" {
		return r.User.Clone()
	}
	if r.Role == "" {
		return nil
	}
	return &users.UserProfile{
		ID:         utils.IDString(r.UserID),
		Username:   r.Username,
		Email:      r.Email,
		Role:       r.Role,
		Discipline: r.Discipline,
		Active:     r.Active,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse accepts both the simplejwt field names and the oauth2 ones.
type refreshResponse struct {
	Access       string `json:"access"`
	Refresh      string `json:"refresh"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type logoutRequest struct {
	Refresh string `json:"refresh,omitempty"`
}

// errorResponse is the error body shape of both the ATS backend and RFC 6749.
type errorResponse struct {
	Code        string `json:"code"`
	Detail      string `json:"detail"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

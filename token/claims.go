package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/ats-client/internal/utils"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the claim set carried by ATS credentials. The user_id and token_type
// names follow the backend's token format.
type Claims struct {
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// Details is what the client can learn from a credential without verifying it.
type Details struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect reads the claims of a JWT credential without verifying its signature.
// The client never trusts these values for authorization; they only annotate the
// session (expiry) and logs. Opaque credentials report ok == false.
func Inspect(raw string) (Details, bool) {
	if strings.Count(raw, ".") != 2 {
		return Details{}, false
	}
	var claims struct {
		UserID    any    `json:"user_id"`
		TokenType string `json:"token_type"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Details{}, false
	}

	d := Details{
		UserID:    utils.IDString(claims.UserID),
		TokenType: claims.TokenType,
	}
	if d.UserID == "" {
		d.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		d.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		d.IssuedAt = claims.IssuedAt.Time
	}
	return d, true
}

// ExpiresAt returns the exp claim of a JWT credential, or the zero time when unknown.
func ExpiresAt(raw string) time.Time {
	d, _ := Inspect(raw)
	return d.ExpiresAt
}

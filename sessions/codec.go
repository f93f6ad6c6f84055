package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/ats-client/internal/errors"
	"github.com/jrsteele09/ats-client/users"
)

// Persisted keys. These names and SchemaVersion form the storage contract: a reload
// finds the session under the same keys without re-authenticating.
const (
	KeyVersion      = "ats.session.version"
	KeyAccessToken  = "ats.session.accessToken"
	KeyRefreshToken = "ats.session.refreshToken"
	KeyUser         = "ats.session.user"

	SchemaVersion = "1"
)

// Keys lists every key the session occupies.
var Keys = []string{KeyVersion, KeyAccessToken, KeyRefreshToken, KeyUser}

// encode maps s onto the keys to set and the keys to remove.
// An unauthenticated session removes everything.
func encode(s Session) (map[string]string, []string, error) {
	if !s.IsAuthenticated() {
		return nil, Keys, nil
	}

	user, err := json.Marshal(s.User)
	if err != nil {
		return nil, nil, fmt.Errorf("encode user: %w", err)
	}
	set := map[string]string{
		KeyVersion:     SchemaVersion,
		KeyAccessToken: s.AccessToken,
		KeyUser:        string(user),
	}

	var remove []string
	if s.RefreshToken != "" {
		set[KeyRefreshToken] = s.RefreshToken
	} else {
		remove = append(remove, KeyRefreshToken)
	}
	return set, remove, nil
}

// decode rebuilds a session from stored items. No items at all is the empty session;
// anything incomplete or inconsistent is reported as malformed.
func decode(items map[string]string) (Session, error) {
	if len(items) == 0 {
		return Session{}, nil
	}
	if v := items[KeyVersion]; v != SchemaVersion {
		return Session{}, errors.Wrapf(errors.ErrMalformedSession, "unsupported version %q", v)
	}

	access := items[KeyAccessToken]
	rawUser, hasUser := items[KeyUser]
	if access == "" || !hasUser {
		return Session{}, errors.Wrapf(errors.ErrMalformedSession, "credential and profile must be stored together")
	}

	var user users.UserProfile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Session{}, errors.Wrapf(errors.ErrMalformedSession, "decode user: %v", err)
	}
	if err := user.Validate(); err != nil {
		return Session{}, errors.Wrapf(errors.ErrMalformedSession, "%v", err)
	}

	return New(access, items[KeyRefreshToken], &user), nil
}

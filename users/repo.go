package users

import "errors"

var (
	UserNotFoundErr  = errors.New("user not found")
	UsernameTakenErr = errors.New("username already taken")
)

// User is a stored account: the profile plus the credential that proves it.
type User struct {
	UserProfile
	PasswordHash string `json:"-"`
}

// Profile returns a copy of the user's public profile.
func (u *User) Profile() *UserProfile {
	return u.UserProfile.Clone()
}

// SetPassword replaces the stored hash with one for password.
func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// UserRepo stores accounts. Implementations return copies, never shared records.
type UserRepo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByID(id string) (*User, error)
	GetByUsername(username string) (*User, error)
	List() ([]*User, error)
}

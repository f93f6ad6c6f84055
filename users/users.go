package users

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/ats-client/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the server-issued role that scopes every dashboard.
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Manages users and lab tests
	RoleCoach   RoleType = "coach"   // Follows assigned athletes
	RoleAthlete RoleType = "athlete" // Reads their own dashboard and test results
)

// Roles lists every role the backend can issue.
var Roles = []RoleType{RoleAdmin, RoleCoach, RoleAthlete}

func (r RoleType) Valid() bool {
	return slices.Contains(Roles, r)
}

// HomeView is the view a user of this role lands on after login.
func (r RoleType) HomeView() string {
	switch r {
	case RoleAdmin:
		return "admin-dashboard"
	case RoleCoach:
		return "coach-dashboard"
	case RoleAthlete:
		return "athlete-dashboard"
	}
	return "login"
}

// UserProfile is the cached identity snapshot held by a session.
// It is treated as immutable: a refresh replaces it wholesale.
type UserProfile struct {
	ID         string   `json:"id,omitempty"`
	Username   string   `json:"username" validate:"required"`
	Email      *string  `json:"email,omitempty"`
	Role       RoleType `json:"role" validate:"required,oneof=admin coach athlete"`
	Discipline *string  `json:"discipline,omitempty"`
	Active     *bool    `json:"active,omitempty"`

	// Optional extras some profile responses carry
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Coach       *string `json:"coach,omitempty"`
}

// UnmarshalJSON accepts numeric or string identifiers for id and coach.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type profileAlias UserProfile
	aux := struct {
		ID    any `json:"id"`
		Coach any `json:"coach"`
		*profileAlias
	}{profileAlias: (*profileAlias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = utils.IDString(aux.ID)
	p.Coach = utils.NonEmpty(utils.IDString(aux.Coach))
	return nil
}

// HasRole reports whether the profile carries one of roles.
func (p *UserProfile) HasRole(roles ...RoleType) bool {
	if p == nil {
		return false
	}
	return slices.Contains(roles, p.Role)
}

// IsActive treats an absent active flag as active, matching the server default.
func (p *UserProfile) IsActive() bool {
	return utils.ValueOr(p.Active, true)
}

// Clone returns a deep copy so callers never share optional fields with the session.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Email = clonePtr(p.Email)
	c.Discipline = clonePtr(p.Discipline)
	c.Active = clonePtr(p.Active)
	c.DateOfBirth = clonePtr(p.DateOfBirth)
	c.PhoneNumber = clonePtr(p.PhoneNumber)
	c.Coach = clonePtr(p.Coach)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return utils.Ptr(*v)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the profile is complete enough to drive authorization: a
// username and a known role. Optional fields are taken as the server sent them.
func (p *UserProfile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is missing")
	}
	if err := Validator().Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

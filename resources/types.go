package resources

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/users"
)

// Account is a user record as the admin users panel sees it.
type Account struct {
	users.UserProfile
}

// AccountInput is the body of a create or update user call. Password is required on
// create and left out of an update when empty, which keeps the current password.
type AccountInput struct {
	Username    string         `json:"username" validate:"required"`
	Email       string         `json:"email,omitempty" validate:"omitempty,email"`
	Password    string         `json:"password,omitempty"`
	Role        users.RoleType `json:"role" validate:"required,oneof=admin coach athlete"`
	Discipline  string         `json:"discipline,omitempty"`
	DateOfBirth string         `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PhoneNumber string         `json:"phone_number,omitempty"`
	Active      bool           `json:"active"`
	Coach       string         `json:"coach,omitempty"` // Coach id, athletes only
}

// Category of a lab test.
type Category string

const (
	CategoryStrength     Category = "strength"
	CategoryEndurance    Category = "endurance"
	CategorySpeed        Category = "speed"
	CategoryFlexibility  Category = "flexibility"
	CategoryAgility      Category = "agility"
	CategoryBalance      Category = "balance"
	CategoryCoordination Category = "coordination"
)

// Unit a lab test is measured in.
type Unit string

const (
	UnitSeconds     Unit = "seconds"
	UnitMinutes     Unit = "minutes"
	UnitMeters      Unit = "meters"
	UnitCentimeters Unit = "centimeters"
	UnitKilograms   Unit = "kilograms"
	UnitRepetitions Unit = "repetitions"
	UnitScore       Unit = "score"
)

// LabTest is a measurable test athletes are scored on.
type LabTest struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name" validate:"required"`
	Category       Category `json:"category" validate:"required,oneof=strength endurance speed flexibility agility balance coordination"`
	Description    string   `json:"description,omitempty"`
	Unit           Unit     `json:"unit" validate:"required,oneof=seconds minutes meters centimeters kilograms repetitions score"`
	HigherIsBetter bool     `json:"higher_is_better"`
}

func (t *LabTest) UnmarshalJSON(data []byte) error {
	type labTestAlias LabTest
	aux := struct {
		ID any `json:"id"`
		*labTestAlias
	}{labTestAlias: (*labTestAlias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.ID = utils.IDString(aux.ID)
	return nil
}

// Coach is the summary of an athlete's coach on the athlete dashboard.
type Coach struct {
	ID             string  `json:"id,omitempty"`
	Username       string  `json:"username"`
	Email          *string `json:"email,omitempty"`
	Discipline     *string `json:"discipline,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

func (c *Coach) UnmarshalJSON(data []byte) error {
	type coachAlias Coach
	aux := struct {
		ID any `json:"id"`
		*coachAlias
	}{coachAlias: (*coachAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ID = utils.IDString(aux.ID)
	return nil
}

// AthleteDashboard is an athlete's profile with their coach.
type AthleteDashboard struct {
	users.UserProfile
	CoachDetails  *Coach `json:"coach_details,omitempty"`
	CoachUsername string `json:"coach_username,omitempty"`
}

func (d *AthleteDashboard) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &d.UserProfile); err != nil {
		return err
	}
	var extra struct {
		CoachDetails  *Coach `json:"coach_details"`
		CoachUsername string `json:"coach_username"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	d.CoachDetails = extra.CoachDetails
	d.CoachUsername = extra.CoachUsername
	return nil
}

// CoachName returns the best available name for the athlete's coach, or "".
func (d *AthleteDashboard) CoachName() string {
	if d.CoachDetails != nil && d.CoachDetails.Username != "" {
		return d.CoachDetails.Username
	}
	return d.CoachUsername
}

// TestResult is one recorded measurement. The server either flattens the test's
// fields onto the result or nests the whole test; both decode to the same value.
type TestResult struct {
	ID             string   `json:"id"`
	TestName       string   `json:"test_name"`
	TestUnit       Unit     `json:"test_unit"`
	TestCategory   Category `json:"test_category"`
	HigherIsBetter *bool    `json:"test_higher_is_better,omitempty"`
	NumericValue   float64  `json:"numeric_value"`
	DateRecorded   string   `json:"date_recorded"`
	Notes          string   `json:"notes,omitempty"`
}

func (r *TestResult) UnmarshalJSON(data []byte) error {
	type resultAlias TestResult
	aux := struct {
		ID           any `json:"id"`
		NumericValue any `json:"numeric_value"`
		Test         *struct {
			Name           string   `json:"name"`
			Unit           Unit     `json:"unit"`
			Category       Category `json:"category"`
			HigherIsBetter *bool    `json:"higher_is_better"`
		} `json:"test"`
		*resultAlias
	}{resultAlias: (*resultAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ID = utils.IDString(aux.ID)
	// Decimal fields may arrive as strings
	if v := utils.IDString(aux.NumericValue); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("numeric_value: %w", err)
		}
		r.NumericValue = n
	}
	if aux.Test != nil {
		if r.TestName == "" {
			r.TestName = aux.Test.Name
		}
		if r.TestUnit == "" {
			r.TestUnit = aux.Test.Unit
		}
		if r.TestCategory == "" {
			r.TestCategory = aux.Test.Category
		}
		if r.HigherIsBetter == nil {
			r.HigherIsBetter = aux.Test.HigherIsBetter
		}
	}
	return nil
}

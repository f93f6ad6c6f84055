package mockapi

import (
	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
	"github.com/pkg/errors"
)

const (
	DefaultAdminUsername   = "admin"
	DefaultCoachUsername   = "coach"
	DefaultAthleteUsername = "athlete"
	DefaultPassword        = "password123"
)

// AddUser stores a new account with the given password and returns it.
func (s *Server) AddUser(profile users.UserProfile, password string) (*users.User, error) {
	user := &users.User{UserProfile: profile}
	if err := user.SetPassword(password); err != nil {
		return nil, errors.Wrap(err, "[Server.AddUser]")
	}
	if err := s.users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "[Server.AddUser] %s", profile.Username)
	}
	return user, nil
}

// AddTest adds a lab test to the catalogue and returns it with its id.
func (s *Server) AddTest(test resources.LabTest) resources.LabTest {
	return s.lab.create(test)
}

// AddResult records a measurement for an athlete. value is decimal text, e.g. "4.35".
func (s *Server) AddResult(athleteID, testID, value, dateRecorded, notes string) {
	s.results.add(athleteID, result{
		TestID:       testID,
		Value:        value,
		DateRecorded: dateRecorded,
		Notes:        notes,
	})
}

// Seed creates one account per role, all with DefaultPassword, plus a small lab test
// catalogue and some results for the athlete.
func (s *Server) Seed() error {
	if _, err := s.AddUser(users.UserProfile{
		Username: DefaultAdminUsername,
		Email:    utils.Ptr("admin@ats.local"),
		Role:     users.RoleAdmin,
		Active:   utils.Ptr(true),
	}, DefaultPassword); err != nil {
		return err
	}

	coach, err := s.AddUser(users.UserProfile{
		Username:    DefaultCoachUsername,
		Email:       utils.Ptr("coach@ats.local"),
		Role:        users.RoleCoach,
		Discipline:  utils.Ptr("athletics"),
		PhoneNumber: utils.Ptr("+44 20 7946 0000"),
		Active:      utils.Ptr(true),
	}, DefaultPassword)
	if err != nil {
		return err
	}

	athlete, err := s.AddUser(users.UserProfile{
		Username:    DefaultAthleteUsername,
		Email:       utils.Ptr("athlete@ats.local"),
		Role:        users.RoleAthlete,
		Discipline:  utils.Ptr("sprint"),
		DateOfBirth: utils.Ptr("2004-05-17"),
		Active:      utils.Ptr(true),
		Coach:       utils.Ptr(coach.ID),
	}, DefaultPassword)
	if err != nil {
		return err
	}

	sprint := s.AddTest(resources.LabTest{
		Name:     "30m Sprint",
		Category: resources.CategorySpeed,
		Unit:     resources.UnitSeconds,
	})
	jump := s.AddTest(resources.LabTest{
		Name:           "Vertical Jump",
		Category:       resources.CategoryStrength,
		Unit:           resources.UnitCentimeters,
		HigherIsBetter: true,
	})
	s.AddTest(resources.LabTest{
		Name:        "Sit and Reach",
		Category:    resources.CategoryFlexibility,
		Description:    "Seated forward reach past the toes",
		Unit:           resources.UnitCentimeters,
		HigherIsBetter: true,
	})

	s.AddResult(athlete.ID, sprint.ID, "4.35", "2026-03-02", "")
	s.AddResult(athlete.ID, sprint.ID, "4.21", "2026-04-06", "new spikes")
	s.AddResult(athlete.ID, jump.ID, "58.50", "2026-04-06", "")

	s.logger.Info().Str("password", DefaultPassword).
		Strs("users", []string{DefaultAdminUsername, DefaultCoachUsername, DefaultAthleteUsername}).
		Msg("mock backend seeded")
	return nil
}

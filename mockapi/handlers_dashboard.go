package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
)

type athleteResponse struct {
	*users.UserProfile
	CoachDetails *resources.Coach `json:"coach_details,omitempty"`
}

type testResultResponse struct {
	ID           string            `json:"id"`
	Test         resources.LabTest `json:"test"`
	NumericValue string            `json:"numeric_value"`
	DateRecorded string            `json:"date_recorded"`
	Notes        string            `json:"notes,omitempty"`
}

func (s *Server) AthleteDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		athlete, ok := s.visibleAthlete(w, r)
		if !ok {
			return
		}

		resp := athleteResponse{UserProfile: athlete.Profile()}
		if coachID := utils.Value(athlete.Coach); coachID != "" {
			if coach, err := s.users.GetByID(coachID); err == nil {
				resp.CoachDetails = &resources.Coach{
					ID:          coach.ID,
					Username:    coach.Username,
					Email:       coach.Email,
					Discipline:  coach.Discipline,
					PhoneNumber: coach.PhoneNumber,
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"athlete": resp})
	}
}

func (s *Server) TestResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		athlete, ok := s.visibleAthlete(w, r)
		if !ok {
			return
		}

		results := make([]testResultResponse, 0)
		for _, res := range s.results.forAthlete(athlete.ID) {
			test, found := s.lab.get(res.TestID)
			if !found {
				continue
			}
			results = append(results, testResultResponse{
				ID:           res.ID,
				Test:         test,
				NumericValue: res.Value,
				DateRecorded: res.DateRecorded,
				Notes:        res.Notes,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"test_results": results})
	}
}

// visibleAthlete loads the athlete named by the route and checks the caller may see
// them: admins see everyone, coaches their own athletes, athletes only themselves.
func (s *Server) visibleAthlete(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	athlete, err := s.users.GetByID(chi.URLParam(r, "id"))
	if err != nil || athlete.Role != users.RoleAthlete {
		writeDetail(w, http.StatusNotFound, "Athlete not found.")
		return nil, false
	}

	caller := callerFrom(r)
	allowed := false
	switch caller.Role {
	case users.RoleAdmin:
		allowed = true
	case users.RoleCoach:
		allowed = utils.Value(athlete.Coach) == caller.ID
	case users.RoleAthlete:
		allowed = athlete.ID == caller.ID
	}
	if !allowed {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return nil, false
	}
	return athlete, true
}

package mockapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
)

type userResponse struct {
	Message string             `json:"message"`
	User    *users.UserProfile `json:"user"`
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.users.List()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		profiles := make([]*users.UserProfile, 0, len(all))
		for _, u := range all {
			profiles = append(profiles, u.Profile())
		}
		writeJSON(w, http.StatusOK, map[string]any{"Users": profiles})
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in resources.AccountInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if in.Password == "" {
			writeError(w, http.StatusBadRequest, "Password is required")
			return
		}

		user := &users.User{}
		if status, msg := s.applyAccount(user, in); status != 0 {
			writeError(w, status, msg)
			return
		}
		if err := s.users.Upsert(user); err != nil {
			writeUpsertError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: user.Profile()})
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.GetByID(chi.URLParam(r, "id"))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		var in resources.AccountInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if status, msg := s.applyAccount(user, in); status != 0 {
			writeError(w, status, msg)
			return
		}
		if err := s.users.Upsert(user); err != nil {
			writeUpsertError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{Message: "User updated successfully", User: user.Profile()})
	}
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == callerFrom(r).ID {
			writeError(w, http.StatusBadRequest, "You cannot delete your own account")
			return
		}
		if err := s.users.Delete(id); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		s.results.deleteAthlete(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// applyAccount copies in onto user. A non-zero status reports why it was refused.
func (s *Server) applyAccount(user *users.User, in resources.AccountInput) (int, string) {
	if err := users.Validator().Struct(in); err != nil {
		return http.StatusBadRequest, err.Error()
	}
	if in.Coach != "" {
		coach, err := s.users.GetByID(in.Coach)
		if err != nil || coach.Role != users.RoleCoach {
			return http.StatusBadRequest, "Coach does not exist"
		}
	}
	if in.Password != "" {
		if err := user.SetPassword(in.Password); err != nil {
			return http.StatusInternalServerError, "Could not hash password"
		}
	}

	user.Username = in.Username
	user.Email = utils.NonEmpty(in.Email)
	user.Role = in.Role
	user.Discipline = utils.NonEmpty(in.Discipline)
	user.DateOfBirth = utils.NonEmpty(in.DateOfBirth)
	user.PhoneNumber = utils.NonEmpty(in.PhoneNumber)
	user.Active = utils.Ptr(in.Active)
	user.Coach = nil
	if in.Role == users.RoleAthlete {
		user.Coach = utils.NonEmpty(in.Coach)
	}
	return 0, ""
}

func writeUpsertError(w http.ResponseWriter, err error) {
	if errors.Is(err, users.UsernameTakenErr) {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

package mockapi

import (
	"net/http"

	"github.com/jrsteele09/ats-client/token"
	"github.com/jrsteele09/ats-client/users"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the flat form of the credential exchange response.
type loginResponse struct {
	Access     string         `json:"access"`
	Refresh    string         `json:"refresh"`
	UserID     string         `json:"user_id"`
	Username   string         `json:"username"`
	Email      *string        `json:"email"`
	Role       users.RoleType `json:"role"`
	Discipline *string        `json:"discipline"`
	Active     bool           `json:"active"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		user, err := s.users.GetByUsername(req.Username)
		if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !user.IsActive() {
			writeError(w, http.StatusUnauthorized, "User account is disabled")
			return
		}

		access, err := s.issuer.IssueAccess(user.ID, string(user.Role))
		if err != nil {
			s.logger.Err(err).Msg("issue access token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
			return
		}
		refresh, err := s.issuer.IssueRefresh(user.ID)
		if err != nil {
			s.logger.Err(err).Msg("issue refresh token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
			return
		}

		s.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("login")
		writeJSON(w, http.StatusOK, loginResponse{
			Access:     access,
			Refresh:    refresh,
			UserID:     user.ID,
			Username:   user.Username,
			Email:      user.Email,
			Role:       user.Role,
			Discipline: user.Discipline,
			Active:     user.IsActive(),
		})
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, callerFrom(r).Profile())
	}
}

// RefreshHandler exchanges a refresh credential for a new access credential. With
// rotation on, the response also carries a new refresh credential and the old one
// stops working.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
			writeDetail(w, http.StatusBadRequest, "refresh is required")
			return
		}

		claims, err := s.issuer.Verify(req.Refresh, token.TypeRefresh)
		if err != nil {
			writeTokenError(w, "Token is invalid or expired")
			return
		}
		user, err := s.users.GetByID(claims.UserID)
		if err != nil || !user.IsActive() {
			writeTokenError(w, "User not found")
			return
		}

		access, err := s.issuer.IssueAccess(user.ID, string(user.Role))
		if err != nil {
			s.logger.Err(err).Msg("issue access token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
			return
		}
		resp := refreshResponse{Access: access}
		if s.rotate {
			if resp.Refresh, err = s.issuer.IssueRefresh(user.ID); err != nil {
				s.logger.Err(err).Msg("issue refresh token")
				writeDetail(w, http.StatusInternalServerError, "Could not issue token.")
				return
			}
			s.issuer.Revoke(req.Refresh, token.TypeRefresh)
		}

		s.logger.Debug().Str("user_id", user.ID).Bool("rotated", s.rotate).Msg("token refreshed")
		writeJSON(w, http.StatusOK, resp)
	}
}

// LogoutHandler revokes the refresh credential in the body and the bearer access
// credential. Credentials that are already invalid are ignored.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = decodeJSON(r, &req)
		if req.Refresh != "" {
			s.issuer.Revoke(req.Refresh, token.TypeRefresh)
		}
		if access, ok := bearer(r); ok {
			s.issuer.Revoke(access, token.TypeAccess)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
	}
}

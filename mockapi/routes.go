package mockapi

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/ats-client/users"
)

const (
	RouteLogin   = "/custom_auth/login/"
	RouteProfile = "/custom_auth/profile/"
	RouteRefresh = "/custom_auth/token/refresh/"
	RouteLogout  = "/custom_auth/logout/"

	RouteUserList   = "/custom_auth/list/"
	RouteUserCreate = "/custom_auth/register/"
	RouteUserUpdate = "/custom_auth/update/{id}/"
	RouteUserDelete = "/custom_auth/delete/{id}/"

	RouteTestList   = "/lab/list/"
	RouteTestCreate = "/lab/create/"
	RouteTestUpdate = "/lab/update/{id}/"
	RouteTestDelete = "/lab/delete/{id}/"

	RouteAthleteDashboard = "/dashboard/athlete-dashboard/{id}/"
	RouteTestResults      = "/dashboard/test-results/{id}/"
)

func (s *Server) initRoutes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(s.LoggingMiddleware)
	s.router.Use(s.RecoverMiddleware)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})

	anyRole := []users.RoleType{users.RoleAdmin, users.RoleCoach, users.RoleAthlete}

	s.RegisterRoute(http.MethodPost, RouteLogin, s.LoginHandler())
	s.RegisterRoute(http.MethodGet, RouteProfile, s.RequireAuth(s.ProfileHandler(), anyRole...))
	s.RegisterRoute(http.MethodPost, RouteRefresh, s.RefreshHandler())
	s.RegisterRoute(http.MethodPost, RouteLogout, s.LogoutHandler())

	s.RegisterRoute(http.MethodGet, RouteUserList, s.RequireAuth(s.ListUsersHandler(), users.RoleAdmin))
	s.RegisterRoute(http.MethodPost, RouteUserCreate, s.RequireAuth(s.CreateUserHandler(), users.RoleAdmin))
	s.RegisterRoute(http.MethodPut, RouteUserUpdate, s.RequireAuth(s.UpdateUserHandler(), users.RoleAdmin))
	s.RegisterRoute(http.MethodDelete, RouteUserDelete, s.RequireAuth(s.DeleteUserHandler(), users.RoleAdmin))

	s.RegisterRoute(http.MethodGet, RouteTestList, s.RequireAuth(s.ListTestsHandler(), anyRole...))
	s.RegisterRoute(http.MethodPost, RouteTestCreate, s.RequireAuth(s.CreateTestHandler(), users.RoleAdmin))
	s.RegisterRoute(http.MethodPut, RouteTestUpdate, s.RequireAuth(s.UpdateTestHandler(), users.RoleAdmin))
	s.RegisterRoute(http.MethodDelete, RouteTestDelete, s.RequireAuth(s.DeleteTestHandler(), users.RoleAdmin))

	s.RegisterRoute(http.MethodGet, RouteAthleteDashboard, s.RequireAuth(s.AthleteDashboardHandler(), anyRole...))
	s.RegisterRoute(http.MethodGet, RouteTestResults, s.RequireAuth(s.TestResultsHandler(), anyRole...))
}

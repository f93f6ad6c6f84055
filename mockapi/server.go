package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/ats-client/token"
	"github.com/jrsteele09/ats-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is a local stand-in for the ATS backend. It speaks the same contract as the
// real service (login, profile, refresh, logout and the resource endpoints) so the
// client can be developed and tested without one.
type Server struct {
	router  *chi.Mux
	routes  []string
	issuer  *token.Issuer
	users   users.UserRepo
	lab     *labStore
	results *resultStore
	rotate  bool
	logger  zerolog.Logger
	nowTime func() time.Time
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRefreshRotation makes the refresh endpoint issue a new refresh credential and
// revoke the one it was given.
func WithRefreshRotation(rotate bool) ServerOption {
	return func(s *Server) {
		s.rotate = rotate
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(issuer *token.Issuer, userRepo users.UserRepo, opts ...ServerOption) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		issuer:  issuer,
		users:   userRepo,
		lab:     newLabStore(),
		results: newResultStore(),
		logger:  log.Logger,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoute mounts handler for method and pattern and records it for LogRoutes.
func (s *Server) RegisterRoute(method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.Method(method, pattern, handler)
}

// LogRoutes prints the registered routes, one per line.
func (s *Server) LogRoutes() {
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		s.logRoute(parts[0], parts[1])
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msg(fmt.Sprintf("[%-19s] %s", colourMethod(method), path))
}

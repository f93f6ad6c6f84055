package main

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/ats-client/auth"
	"github.com/jrsteele09/ats-client/authapi"
	"github.com/jrsteele09/ats-client/gateway"
	"github.com/jrsteele09/ats-client/internal/config"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/sessions"
	"github.com/jrsteele09/ats-client/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// env is what every command receives: configuration and the terminal.
type env struct {
	config config.Config
	in     io.Reader
	out    io.Writer
}

// app is the client stack a command talks to the backend through.
type app struct {
	backend   storage.KeyValue
	store     *sessions.PersistentStore
	auth      *auth.Service
	resources *resources.Client
}

func (e *env) open(ctx context.Context) (*app, error) {
	backend, err := openBackend(ctx, e.config)
	if err != nil {
		log.Warn().Err(err).Str("backend", e.config.GetSessionBackend()).Msg("Session storage unavailable, the session will not outlive this command")
		backend = storage.NewMemory()
	}
	store := sessions.NewPersistentStore(ctx, backend)

	paths := e.config.GetPaths()
	httpClient := &http.Client{Timeout: e.config.GetHTTPTimeout()}
	api := authapi.NewClient(e.config.GetAPIBaseURL(),
		authapi.WithHTTPClient(httpClient),
		authapi.WithEndpoints(authapi.Endpoints{
			Login:   paths.Login,
			Profile: paths.Profile,
			Refresh: paths.Refresh,
			Logout:  paths.Logout,
		}),
	)

	opts := []gateway.Option{
		gateway.WithHTTPClient(httpClient),
		gateway.WithRefreshRotation(e.config.GetRotateRefreshTokens()),
	}
	if rps := e.config.GetRateLimit(); rps > 0 {
		opts = append(opts, gateway.WithRateLimit(rps, e.config.GetRateBurst()))
	}
	gw := gateway.New(e.config.GetAPIBaseURL(), store, api, opts...)

	return &app{
		backend: backend,
		store:   store,
		auth:    auth.NewService(api, store),
		resources: resources.NewClient(gw, resources.WithPaths(resources.Paths{
			UserList:         paths.UserList,
			UserCreate:       paths.UserCreate,
			UserUpdate:       paths.UserUpdate,
			UserDelete:       paths.UserDelete,
			TestList:         paths.TestList,
			TestCreate:       paths.TestCreate,
			TestUpdate:       paths.TestUpdate,
			TestDelete:       paths.TestDelete,
			AthleteDashboard: paths.AthleteDashboard,
			TestResults:      paths.TestResults,
		})),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		log.Warn().Err(err).Msg("Closing session storage")
	}
}

func openBackend(ctx context.Context, c config.SessionConfig) (storage.KeyValue, error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		return storage.NewMemory(), nil
	case config.SessionBackendFile:
		var opts []storage.FileOption
		if key := c.GetSessionKey(); key != "" {
			opts = append(opts, storage.WithPassphrase(key))
		}
		return storage.NewFile(c.GetSessionFile(), opts...), nil
	case config.SessionBackendRedis:
		client, err := storage.NewRedisClient(c.GetRedisURL())
		if err != nil {
			return nil, err
		}
		return storage.NewRedis(client, c.GetRedisKey()), nil
	case config.SessionBackendSQLite:
		db, err := storage.OpenSQLite(ctx, c.GetSQLitePath())
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, errors.Errorf("unknown session backend %q", c.GetSessionBackend())
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/ats-client/mockapi"
	"github.com/jrsteele09/ats-client/token"
	fakeuserrepo "github.com/jrsteele09/ats-client/users/repofake"
	"github.com/rs/zerolog/log"
)

func mockServerCmd(ctx context.Context, e *env, args []string) error {
	c := e.config
	fs := flag.NewFlagSet("mock-server", flag.ContinueOnError)
	addr := fs.String("addr", c.GetMockAddr(), "listen address")
	accessTTL := fs.Duration("access-ttl", c.GetMockAccessTTL(), "lifetime of access tokens")
	refreshTTL := fs.Duration("refresh-ttl", c.GetMockRefreshTTL(), "lifetime of refresh tokens")
	rotate := fs.Bool("rotate", c.GetRotateRefreshTokens(), "rotate refresh tokens on every refresh")
	if err := fs.Parse(args); err != nil {
		return err
	}

	issuer := token.NewIssuer(c.GetMockSecret(), *accessTTL, *refreshTTL)
	mock := mockapi.New(issuer, fakeuserrepo.NewFakeUserRepo(),
		mockapi.WithLogger(log.Logger),
		mockapi.WithRefreshRotation(*rotate),
	)
	if err := mock.Seed(); err != nil {
		return err
	}
	if c.GetEnv() == "DEV" {
		mock.LogRoutes()
	}

	server := &http.Server{Addr: *addr, Handler: mock, ReadHeaderTimeout: 5 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Mock ATS backend listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Mock ATS backend stopped")
	return nil
}

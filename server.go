package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sysmonitor/internal/config"
	"sysmonitor/internal/logging"
	"sysmonitor/internal/routes"
	"sysmonitor/internal/services"
)

const shutdownTimeout = 5 * time.Second

// server is the optional HTTP and WebSocket surface
type server struct {
	cfg      config.ServerConfig
	http     *http.Server
	listener net.Listener
	hub      *services.WebSocketHub
	log      zerolog.Logger
}

// newServer binds the listen address up front so a busy port fails startup
func newServer(cfg config.ServerConfig, store *services.SnapshotStore, log zerolog.Logger) (*server, error) {
	httpLog := logging.Component(log, "http")

	var auth *services.AuthService
	if cfg.Auth {
		var err error
		auth, err = services.NewAuthService(cfg.Secret, cfg.TokenExpiry, logging.Component(log, "auth"))
		if err != nil {
			return nil, err
		}
	} else {
		httpLog.Warn().Msg("stream authentication disabled")
	}

	hub := services.NewWebSocketHub(store, logging.Component(log, "ws"))
	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Store:  store,
		Hub:    hub,
		Auth:   auth,
		Log:    log,
	})

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}

	return &server{
		cfg: cfg,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
		hub:      hub,
		log:      httpLog,
	}, nil
}

// start runs the hub and the HTTP server in g until ctx is done
func (s *server) start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error { return s.hub.Run(ctx) })

	g.Go(func() error {
		var err error
		if s.cfg.TLSCert != "" {
			s.log.Info().Str("addr", s.listener.Addr().String()).Msg("serving https")
			err = s.http.ServeTLS(s.listener, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			s.log.Info().Str("addr", s.listener.Addr().String()).Msg("serving http")
			err = s.http.Serve(s.listener)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("graceful shutdown failed")
		}
		return nil
	})
}

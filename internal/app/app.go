package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-client/internal/transport/http"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// App wires the transport session, the sync controller and the optional
// local view server.
type App struct {
	cfg             config.Config
	session         *ws.Session
	controller      *core.Controller
	view            *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with a websocket dialer.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	return NewWithDialer(cfg, ws.WebSocketDialer{ReadLimit: cfg.MaxFrameBytes}, logger)
}

// NewWithDialer constructs the application over an arbitrary dialer.
func NewWithDialer(cfg config.Config, dialer ws.Dialer, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	session := ws.NewSession(dialer, sessionOptions(cfg), logger)
	controller := core.NewController(session, logger)

	var view *stdhttp.Server
	if cfg.ViewAddr != "" {
		view = transporthttp.NewServer(controller, cfg, logger)
	}

	return &App{
		cfg:             cfg,
		session:         session,
		controller:      controller,
		view:            view,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// Controller exposes the consumer surface for in-process views.
func (a *App) Controller() *core.Controller {
	return a.controller
}

// Run opens the session and blocks until ctx is cancelled or a fatal view
// server error occurs. The session is closed on every return path.
func (a *App) Run(ctx context.Context) error {
	controllerDone := make(chan error, 1)
	go func() {
		controllerDone <- a.controller.Run(ctx)
	}()

	defer func() {
		_ = a.session.Close()
		<-controllerDone
	}()

	if err := a.session.Open(ctx, a.cfg.Endpoint); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	if a.cfg.Username != "" {
		a.controller.AttemptJoin(ctx, a.cfg.Username)
	}

	serverErr := make(chan error, 1)
	if a.view != nil {
		go func() {
			a.log.Info().Str("addr", a.view.Addr).Msg("view server listening")
			if err := a.view.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("view server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return a.shutdownView()
	}
}

func (a *App) shutdownView() error {
	if a.view == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down view server")
	if err := a.view.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown view server: %w", err)
	}
	return nil
}

func sessionOptions(cfg config.Config) ws.Options {
	return ws.Options{
		DialTimeout:         cfg.DialTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		ReconnectInitial:    cfg.ReconnectInitial,
		ReconnectMax:        cfg.ReconnectMax,
		ReconnectMultiplier: cfg.ReconnectMultiplier,
		EventBuffer:         cfg.EventBuffer,
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wirechat-client: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	endpoint   string
	user       string
	logLevel   string
	viewAddr   string
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "wirechat-client",
		Short:         "Realtime chat client",
		Long:          "Connects to a chat server, keeps messages and the online roster in sync, and reads lines from stdin: the first line joins, the rest are sent as messages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config file (default ./client.yaml)")
	pf.StringVar(&f.endpoint, "endpoint", "", "chat server websocket URL")
	pf.StringVar(&f.user, "user", "", "join immediately with this username")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.viewAddr, "view-addr", "", "serve the local view API on this address")

	return cmd
}

func run(parent context.Context, f flags) error {
	if parent == nil {
		parent = context.Background()
	}
	bootLogger := log.New(f.logLevel, nil)

	cfg, cfgPath, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		Endpoint: f.endpoint,
		Username: f.user,
		LogLevel: f.logLevel,
		ViewAddr: f.viewAddr,
	})

	logger := log.New(cfg.LogLevel, nil)
	logger.Info().Str("config", cfgPath).Str("endpoint", cfg.Endpoint).Msg("starting wirechat client")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// With the view API up, a closed stdin only ends console input.
	onEOF := stop
	if cfg.ViewAddr != "" {
		onEOF = nil
	}
	con := newConsole(application.Controller(), os.Stdin, os.Stdout)
	go con.Run(ctx, onEOF)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("client stopped")
	return nil
}

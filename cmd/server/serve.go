package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/examsrv/examsrv/internal/config"
	"github.com/examsrv/examsrv/internal/examserver"
	"github.com/examsrv/examsrv/internal/logging"
	"github.com/examsrv/examsrv/internal/registry"
	"github.com/examsrv/examsrv/internal/store"
)

// newRootCmd builds the root command. This server has exactly one
// subcommand (serve) — unlike the richer multi-command atari CLI this
// stack is grounded on, an exam server has no daemon/TUI modes to pick
// between, so root itself just runs serve.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("EXAMSRV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "examsrv",
		Short: "Exam room server: TCP protocol, Postgres-backed store",
	}

	serveCmd := newServeCmd(v)
	root.AddCommand(serveCmd)
	root.RunE = serveCmd.RunE

	return root
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start accepting connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(v)
		},
	}

	flags := cmd.Flags()
	flags.String("listen-addr", defaults.ListenAddr, "TCP address to accept connections on")
	flags.String("database-url", defaults.DatabaseURL, "Postgres connection string")
	flags.String("log-file", defaults.LogFile, "rolling server log path (empty disables file logging)")
	flags.String("log-level", defaults.LogLevel, "debug, info, warn, or error")
	flags.Int("registry-size", defaults.RegistrySize, "fixed number of session slots")
	flags.Duration("sweeper-interval", defaults.SweeperInterval, "lifecycle sweeper wake interval")
	flags.Duration("session-idle-timeout", defaults.SessionIdleTimeout, "idle duration before a session is deactivated")

	for _, name := range []string{
		"listen-addr", "database-url", "log-file", "log-level",
		"registry-size", "sweeper-interval", "session-idle-timeout",
	} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := &config.Config{
		ListenAddr:         v.GetString("listen-addr"),
		DatabaseURL:        v.GetString("database-url"),
		LogFile:            v.GetString("log-file"),
		LogLevel:           v.GetString("log-level"),
		RegistrySize:       v.GetInt("registry-size"),
		SweeperInterval:    v.GetDuration("sweeper-interval"),
		SessionIdleTimeout: v.GetDuration("session-idle-timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogFile, parseLevel(cfg.LogLevel), logging.DefaultRotation())
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := store.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	reg := registry.New(cfg.RegistrySize)

	srv := examserver.New(examserver.Deps{
		Registry:           reg,
		Users:              store.NewUserRepository(db),
		Sessions:           store.NewSessionRepository(db),
		Rooms:              store.NewRoomRepository(db),
		Questions:          store.NewQuestionRepository(db),
		Results:            store.NewExamResultRepository(db),
		PracticeResults:    store.NewPracticeResultRepository(db),
		Activity:           store.NewActivityLogRepository(db),
		Logger:             logger,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
	})

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	logger.Info("listening", "addr", cfg.ListenAddr, "registry_size", cfg.RegistrySize)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.RunSweeper(runCtx, cfg.SweeperInterval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(runCtx, ln)
	}()

	select {
	case <-runCtx.Done():
		logger.Info("shutting down gracefully")
		_ = ln.Close()
		<-serveErr
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("accept loop: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

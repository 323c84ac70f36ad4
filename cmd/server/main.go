// Command server runs the messenger TCP endpoint.
//
// Flags mirror the historical operator interface: -a/--host and -p/--port
// override the environment-provided endpoint, -g/--gui mirrors server events
// to the terminal. Configuration beyond the flags comes from environment
// variables, optionally seeded from a .env file in the working directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-messenger-server/internal/admin"
	"github.com/tbourn/go-messenger-server/internal/config"
	"github.com/tbourn/go-messenger-server/internal/events"
	"github.com/tbourn/go-messenger-server/internal/repo"
	"github.com/tbourn/go-messenger-server/internal/server"
	"github.com/tbourn/go-messenger-server/internal/sysutil"
)

func main() {
	var (
		host string
		port int
		gui  bool
	)

	root := &cobra.Command{
		Use:           "server",
		Short:         "Messenger TCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(host, port, gui)
		},
	}
	root.Flags().StringVarP(&host, "host", "a", "", "bind host (overrides MESSENGER_HOST)")
	root.Flags().IntVarP(&port, "port", "p", -1, "bind port (overrides MESSENGER_PORT)")
	root.Flags().BoolVarP(&gui, "gui", "g", false, "mirror server events to the terminal")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(host string, port int, gui bool) error {
	// Blob-store credentials and local overrides live in .env when present.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.SetEndpoint(host, port); err != nil {
		return err
	}

	log, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	bus := events.NewBus()
	if gui {
		admin.NewConsole(os.Stdout, bus, log.GetLevel() <= zerolog.DebugLevel)
	}

	sup, err := server.New(cfg, db, bus, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Start(ctx); err != nil {
		return err
	}

	var ops *admin.OpsServer
	if cfg.Ops.Enabled {
		ops = admin.NewOpsServer(cfg.Ops.Addr, sup.Sessions(), db, log)
		ops.Start()
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	if ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("ops listener shutdown failed")
		}
	}
	sup.Stop()
	return nil
}

// setupLogger writes structured logs to a date-stamped file under the
// configured log directory and, when pretty logging is on, to the console as
// well. Credentials never reach the log stream.
func setupLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	if err := sysutil.EnsureDir(cfg.LogDir); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log directory: %w", err)
	}

	name := fmt.Sprintf("server-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(cfg.LogDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log file: %w", err)
	}

	var w zerolog.LevelWriter = zerolog.MultiLevelWriter(f)
	if cfg.LogPretty {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	log := zerolog.New(w).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/diskseek/diskseek/internal/api"
	"github.com/diskseek/diskseek/internal/config"
	"github.com/diskseek/diskseek/internal/platform"
	"github.com/diskseek/diskseek/internal/progress"
	"github.com/diskseek/diskseek/internal/scheduler"
	"github.com/diskseek/diskseek/internal/scheduler/tasks"
	"github.com/diskseek/diskseek/internal/search"
	"github.com/diskseek/diskseek/internal/volume"
	"github.com/diskseek/diskseek/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the 'diskseek serve' command.
func NewServeCommand(root *rootOptions) *cobra.Command {
	var openBrowser bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, openBrowser)
		},
	}

	cmd.Flags().BoolVar(&openBrowser, "open", false, "open the server URL in the default browser")

	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, openBrowser bool) error {
	cfg, log, err := root.load(cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting diskseek")

	configuredPort := cfg.Server.Port
	actualPort, err := config.FindAvailablePort(cfg.Server.Port, 10)
	if err != nil {
		return fmt.Errorf("find available port: %w", err)
	}
	if actualPort != configuredPort {
		log.Warn().
			Int("configuredPort", configuredPort).
			Int("actualPort", actualPort).
			Msg("configured port in use, using alternative port")
		cfg.Server.Port = actualPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(log.Logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	volumes := volume.NewEnumerator(log.Logger)
	engine := search.New(searchConfig(cfg), volumes, log.Logger)
	defer engine.Close()

	tracker := progress.NewManager(hub, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return err
	}
	if err := tasks.RegisterVolumeRefreshTask(sched, cfg.Volumes.RefreshCron, volumes, hub, tracker); err != nil {
		return err
	}
	sched.Start()

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Search:    engine,
		Volumes:   volumes,
		Hub:       hub,
		Progress:  tracker,
		Scheduler: sched,
		Logs:      log,
	}, log.Logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	serverURL := fmt.Sprintf("http://%s", cfg.Server.Address())
	log.Info().Str("url", serverURL).Msg("HTTP server listening")
	if openBrowser {
		if err := platform.OpenBrowser(ctx, serverURL); err != nil {
			log.Warn().Err(err).Msg("failed to open browser")
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}
	// Log lines must not be routed into a stopped hub.
	log.SetBroadcastHub(nil)
	stopHub()

	log.Info().Msg("server stopped")
	return runErr
}

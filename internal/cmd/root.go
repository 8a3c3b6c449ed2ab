// Package cmd implements the diskseek command line.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diskseek/diskseek/internal/config"
	"github.com/diskseek/diskseek/internal/logger"
	"github.com/diskseek/diskseek/internal/search"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates and returns the root cobra command for diskseek.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "diskseek",
		Short: "Parallel file and folder search across mounted volumes",
		Long: `diskseek finds files and folders by name on every locally mounted volume.

Each volume is split into its top-level directories, which are walked in
parallel. Hidden and system directories are skipped.`,
		Version: config.Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewVolumesCommand(opts))
	cmd.AddCommand(NewRevealCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// load reads configuration and builds a logger writing to logOut. One-shot
// commands default to warnings only so their stdout stays readable.
func (o *rootOptions) load(logOut io.Writer, quietByDefault bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if quietByDefault {
		level = "warn"
	}
	if o.logLevel != "" {
		level = o.logLevel
	}
	cfg.Logging.Level = level

	log := logger.New(logger.Config{
		Level:      level,
		Format:     cfg.Logging.Format,
		Output:     logOut,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		// Streaming only matters when a websocket hub exists.
		EnableStreaming: !quietByDefault,
		BufferSize:      1000,
	})

	return cfg, log, nil
}

// searchConfig maps the configuration file onto the engine's settings.
func searchConfig(cfg *config.Config) search.Config {
	return search.Config{
		Workers:         cfg.Search.Workers,
		ChannelCapacity: cfg.Search.ChannelCapacity,
		ExcludePaths:    cfg.Search.ExcludePaths,
		DefaultExcludes: cfg.Search.DefaultExcludes,
		PruneTopLevel:   cfg.Search.PruneTopLevel,
		StayOnVolume:    cfg.Search.StayOnVolume,
	}
}

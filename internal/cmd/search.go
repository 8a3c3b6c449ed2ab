package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/diskseek/diskseek/internal/search"
	"github.com/diskseek/diskseek/internal/volume"
)

type searchOptions struct {
	extension string
	volume    string
	folders   bool
	format    string
	sort      string
	desc      bool
	timeout   time.Duration
}

// NewSearchCommand creates the 'diskseek search' command.
func NewSearchCommand(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search mounted volumes for files and folders by name",
		Long: `Search every mounted volume, or the one given with --volume, for entries
whose name contains the query (case-insensitive). An empty query matches
everything. Press Ctrl+C to stop early and print what was found so far.`,
		Example: `  diskseek search report
  diskseek search --ext .pdf --volume /home invoice
  diskseek search --folders --format json photos`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return runSearch(cmd, root, opts, query)
		},
	}

	cmd.Flags().StringVarP(&opts.extension, "ext", "e", "", "only files whose name ends with this suffix, e.g. .pdf")
	cmd.Flags().StringVarP(&opts.volume, "volume", "v", "", "search only this mount point")
	cmd.Flags().BoolVar(&opts.folders, "folders", false, "include matching directories")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(formatTable), "output format: table, json or yaml")
	cmd.Flags().StringVar(&opts.sort, "sort", string(search.SortByPath), "sort by path, name or size")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "sort in descending order")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "stop after this long and print partial results (default from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, query string) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	sortField, err := search.ParseSortField(opts.sort)
	if err != nil {
		return err
	}

	cfg, log, err := root.load(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	timeout := cfg.Search.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	engine := search.New(searchConfig(cfg), volume.NewEnumerator(log.Logger), log.Logger)
	defer engine.Close()

	matches := engine.Search(ctx, search.Criteria{
		Query:              query,
		Extension:          opts.extension,
		IncludeDirectories: opts.folders,
		Volume:             opts.volume,
	})
	if ctx.Err() != nil {
		log.Warn().Int("matches", len(matches)).Msg("Search interrupted, showing partial results")
	}

	search.SortMatches(matches, sortField, opts.desc)
	return writeMatches(cmd.OutOrStdout(), format, matches)
}

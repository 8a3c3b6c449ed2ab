package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diskseek/diskseek/internal/platform"
)

// NewRevealCommand creates the 'diskseek reveal' command.
func NewRevealCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <path>",
		Short: "Show a file or folder in the system file manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := root.load(cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer log.Close()

			if err := platform.RevealInFileManager(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("reveal %s: %w", args[0], err)
			}
			log.Debug().Str("path", args[0]).Msg("Revealed path")
			return nil
		},
	}
}

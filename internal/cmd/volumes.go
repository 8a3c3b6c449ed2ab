package cmd

import (
	"github.com/spf13/cobra"

	"github.com/diskseek/diskseek/internal/volume"
)

// NewVolumesCommand creates the 'diskseek volumes' command.
func NewVolumesCommand(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "List the mounted volumes a search covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}

			_, log, err := root.load(cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer log.Close()

			return writeVolumes(cmd.OutOrStdout(), f, volume.NewEnumerator(log.Logger).List())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(formatTable), "output format: table, json or yaml")

	return cmd
}

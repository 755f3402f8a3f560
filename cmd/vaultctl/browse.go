package main

import (
	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/internal/tui"
)

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse your records and their grants interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

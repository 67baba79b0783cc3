package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the campaign state document",
		Long: `Reset deletes the persisted campaign state: all patches, branch links and
propagation progress. Working copies and published dependency branches are
left untouched. Requires --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return newValidationError("reset discards all campaign state; re-run with --force", nil)
			}
			if err := container.Campaign().Reset(); err != nil {
				return classifyError("failed to reset campaign state", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Campaign state cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm discarding all campaign state")

	return cmd
}

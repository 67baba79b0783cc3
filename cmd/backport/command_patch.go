package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newPatchCommand groups the patch bookkeeping subcommands.
func newPatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Track patches and their candidate commits",
	}

	cmd.AddCommand(
		newPatchCreateCommand(),
		newPatchRemoveCommand(),
		newPatchAddSHACommand(),
		newPatchRemoveSHACommand(),
	)

	return cmd
}

func newPatchCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <repo> <message>",
		Short: "Start tracking a patch for a repository",
		Long: `Create registers a patch for the given repository with a change-log
message. Only one patch per repository may be active at a time; candidate
commits are added afterwards with patch add-sha.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, message := args[0], args[1]
			if err := container.Campaign().CreatePatch(context.Background(), repo, message); err != nil {
				return classifyError("failed to create patch", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tracking patch for %s: %s\n", repo, message)
			return nil
		},
	}
}

func newPatchRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <repo>",
		Short: "Stop tracking the patch for a repository",
		Long: `Remove drops the patch for the given repository. A patch still needed
by any release branch must be unlinked first (see need remove).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := args[0]
			if err := container.Campaign().RemovePatch(context.Background(), repo); err != nil {
				return classifyError("failed to remove patch", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed patch for %s\n", repo)
			return nil
		},
	}
}

func newPatchAddSHACommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-sha <repo> <ref>",
		Short: "Add a candidate commit to a patch",
		Long: `Add-sha resolves the given revision against the repository and appends
it to the patch's candidate list. Candidates are equivalent versions of the
same fix on different lines of history; during apply they are tried in the
order added and the first clean cherry-pick wins.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, ref := args[0], args[1]
			if err := container.Campaign().AddPatchSHA(context.Background(), repo, ref); err != nil {
				return classifyError("failed to add candidate commit", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added candidate %s to patch for %s\n", ref, repo)
			return nil
		},
	}
}

func newPatchRemoveSHACommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-sha <repo> <sha>",
		Short: "Remove a candidate commit from a patch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, sha := args[0], args[1]
			if err := container.Campaign().RemovePatchSHA(context.Background(), repo, sha); err != nil {
				return classifyError("failed to remove candidate commit", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed candidate %s from patch for %s\n", sha, repo)
			return nil
		},
	}
}

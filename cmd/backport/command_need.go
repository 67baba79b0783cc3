package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newNeedCommand groups the needed-patch linkage subcommands.
func newNeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "need",
		Short: "Link patches to the release branches that need them",
	}

	cmd.AddCommand(
		newNeedAddCommand(),
		newNeedRemoveCommand(),
	)

	return cmd
}

func newNeedAddCommand() *cobra.Command {
	var (
		all       bool
		beforeSHA string
		afterSHA  string
	)

	cmd := &cobra.Command{
		Use:   "add <patch-repo> [<repo> <branch>]",
		Short: "Mark release branches as needing a patch",
		Long: `Add links the patch for <patch-repo> to release branches. With explicit
<repo> <branch> arguments a single branch is linked. The bulk selectors scan
every maintained release branch instead:

  --all           every maintained release branch
  --before <sha>  branches whose dependency predates <sha> (missing the fix)
  --after <sha>   branches whose dependency already includes <sha>

Bulk adds are idempotent: branches already linked are skipped.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patchRepo := args[0]
			ctx := context.Background()
			svc := container.Campaign()

			selectors := 0
			for _, set := range []bool{all, beforeSHA != "", afterSHA != ""} {
				if set {
					selectors++
				}
			}
			if selectors > 1 {
				return newValidationError("--all, --before and --after are mutually exclusive", nil)
			}

			if selectors == 1 {
				if len(args) != 1 {
					return newValidationError("bulk selectors do not take <repo> <branch> arguments", nil)
				}

				var (
					added int
					err   error
				)
				switch {
				case all:
					added, err = svc.AddNeedAll(ctx, patchRepo)
				case beforeSHA != "":
					added, err = svc.AddNeedBefore(ctx, patchRepo, beforeSHA)
				default:
					added, err = svc.AddNeedAfter(ctx, patchRepo, afterSHA)
				}
				if err != nil {
					return classifyError("failed to link patch", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Linked patch for %s to %d branch(es)\n", patchRepo, added)
				return nil
			}

			if len(args) != 3 {
				return newValidationError("expected <patch-repo> <repo> <branch> or a bulk selector", nil)
			}
			repo, branch := args[1], args[2]
			if err := svc.AddNeed(ctx, patchRepo, repo, branch); err != nil {
				return classifyError("failed to link patch", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s needs patch for %s\n", repo, branch, patchRepo)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Link to every maintained release branch")
	cmd.Flags().StringVar(&beforeSHA, "before", "", "Link to branches whose dependency predates the commit")
	cmd.Flags().StringVar(&afterSHA, "after", "", "Link to branches whose dependency includes the commit")

	return cmd
}

func newNeedRemoveCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "remove <patch-repo> [<repo> <branch>]",
		Short: "Unlink a patch from release branches",
		Long: `Remove unlinks the patch for <patch-repo> from one branch, or from every
tracked branch with --all. Branches left without outstanding work are
dropped from the tracked set.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patchRepo := args[0]
			ctx := context.Background()
			svc := container.Campaign()

			if all {
				if len(args) != 1 {
					return newValidationError("--all does not take <repo> <branch> arguments", nil)
				}
				removed, err := svc.RemoveNeedAll(ctx, patchRepo)
				if err != nil {
					return classifyError("failed to unlink patch", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unlinked patch for %s from %d branch(es)\n", patchRepo, removed)
				return nil
			}

			if len(args) != 3 {
				return newValidationError("expected <patch-repo> <repo> <branch> or --all", nil)
			}
			repo, branch := args[1], args[2]
			if err := svc.RemoveNeed(ctx, patchRepo, repo, branch); err != nil {
				return classifyError("failed to unlink patch", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s no longer needs patch for %s\n", repo, branch, patchRepo)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Unlink from every tracked branch")

	return cmd
}

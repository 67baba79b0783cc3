package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Cherry-pick needed patches onto their release branches",
		Long: `Apply walks every tracked branch with outstanding patches and cherry-picks
the candidate commits onto the branch's dependency line. Conflicting
candidates are skipped; a patch whose candidates all conflict stays needed
for manual resolution. Any other git failure aborts the run after saving
progress, so re-running apply resumes where it stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := container.Campaign().ApplyPatches(context.Background())
			if err != nil {
				return classifyError("patch application aborted", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d patch(es)\n", applied)
			return nil
		},
	}
}

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Publish cherry-picked commits as dependency branches and rebuild",
		Long: `Update propagates every branch's cherry-picked commits: each changed
dependency is pushed to the branch's durable dependency branch
(fast-forwarded, or created when missing), the branch artifact is rebuilt
for its brands, and an updated dependency descriptor is written. A failure
aborts after saving progress; already-propagated branches stay propagated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Campaign().UpdateDependencies(context.Background()); err != nil {
				return classifyError("dependency propagation aborted", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Dependencies propagated")
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/backport/internal/campaign"
)

func newDeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Promote fully patched branches",
	}

	cmd.AddCommand(
		newDeployRCCommand(),
		newDeployProductionCommand(),
	)

	return cmd
}

func newDeployRCCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rc",
		Short: "Deploy release candidates for fully propagated branches",
		Long: `Rc deploys every branch that is fully patched and propagated but has no
release candidate yet. Change-log messages stay queued until the production
deploy ships them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deployed, err := container.Campaign().DeployReleaseCandidates(context.Background())
			if err != nil {
				return classifyError("release candidate deploy aborted", err)
			}
			printDeployments(cmd, deployed, "release candidate")
			return nil
		},
	}
}

func newDeployProductionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "production",
		Short: "Ship release candidates to production",
		Long: `Production deploys every branch whose release candidate is ready. On
success the branch's change-log messages are considered shipped and the
branch is dropped from the tracked set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deployed, err := container.Campaign().DeployProduction(context.Background())
			if err != nil {
				return classifyError("production deploy aborted", err)
			}
			printDeployments(cmd, deployed, "production")
			return nil
		},
	}
}

func printDeployments(cmd *cobra.Command, deployed []campaign.Deployment, stage string) {
	out := cmd.OutOrStdout()
	if len(deployed) == 0 {
		fmt.Fprintf(out, "No branches ready for %s deploy\n", stage)
		return
	}
	for _, d := range deployed {
		fmt.Fprintf(out, "Deployed %s/%s as %s\n", d.Repo, d.Branch, d.Version)
	}
}

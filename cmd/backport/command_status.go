package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/backport/internal/campaign"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show tracked patches and modified release branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := container.Campaign().Load()
			if err != nil {
				return classifyError("failed to load campaign state", err)
			}
			printState(cmd, st)
			return nil
		},
	}
}

func printState(cmd *cobra.Command, st *campaign.State) {
	out := cmd.OutOrStdout()

	patches := st.SortedPatches()
	branches := st.SortedBranches()
	if len(patches) == 0 && len(branches) == 0 {
		fmt.Fprintln(out, "No active campaign")
		return
	}

	fmt.Fprintln(out, "Patches:")
	if len(patches) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, p := range patches {
		fmt.Fprintf(out, "  %s: %s\n", p.Repo, p.Message)
		for _, sha := range p.SHAs {
			fmt.Fprintf(out, "    candidate %s\n", sha)
		}
	}

	fmt.Fprintln(out, "Modified branches:")
	if len(branches) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, mb := range branches {
		fmt.Fprintf(out, "  %s/%s%s\n", mb.Release.Repo, mb.Release.Branch, branchStage(mb))
		for _, p := range mb.NeededPatches {
			fmt.Fprintf(out, "    needs %s\n", p.Repo)
		}
		for _, dep := range sortedDepKeys(mb.ChangedDependencies) {
			fmt.Fprintf(out, "    picked %s@%s\n", dep, mb.ChangedDependencies[dep])
		}
		if len(mb.Messages) > 0 {
			fmt.Fprintf(out, "    pending: %s\n", strings.Join(mb.Messages, "; "))
		}
	}
}

func branchStage(mb *campaign.ModifiedBranch) string {
	switch {
	case mb.IsReadyForProduction():
		return " (rc " + mb.DeployedVersion + ")"
	case mb.IsReadyForReleaseCandidate():
		return " (ready for rc)"
	default:
		return ""
	}
}

func newLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List release branches with their dependency branches",
		Long: `Links resolves every maintained release branch across the fleet and prints
its durable dependency branch together with the dependency commits the
branch currently declares.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := container.Campaign().Links(context.Background())
			if err != nil {
				return classifyError("failed to resolve release branches", err)
			}
			out := cmd.OutOrStdout()
			for _, link := range links {
				fmt.Fprintf(out, "%s/%s -> %s\n", link.Release.Repo, link.Release.Branch, link.DepBranch)
				for _, dep := range sortedDepKeys(link.Dependencies) {
					fmt.Fprintf(out, "  %s@%s\n", dep, link.Dependencies[dep])
				}
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <repo> <branch>",
		Short: "Report which tracked patches a release branch already contains",
		Long: `Status resolves the release branch and checks, for every tracked patch,
whether any of its candidate commits is already part of the branch's
dependency line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, branch := args[0], args[1]
			report, err := container.Campaign().Status(context.Background(), repo, branch)
			if err != nil {
				return classifyError("failed to report branch status", err)
			}
			printBranchStatus(cmd, report)
			return nil
		},
	}
}

func printBranchStatus(cmd *cobra.Command, report *campaign.BranchStatus) {
	out := cmd.OutOrStdout()

	tracked := "not tracked"
	if report.Tracked {
		tracked = "tracked"
	}
	fmt.Fprintf(out, "%s/%s (%s)\n", report.Release.Repo, report.Release.Branch, tracked)

	if len(report.Patches) == 0 {
		fmt.Fprintln(out, "  no patches tracked")
		return
	}
	for _, p := range report.Patches {
		fmt.Fprintf(out, "  %s: %s [%s]\n", p.PatchRepo, p.Message, patchVerdict(p))
	}
}

func patchVerdict(p campaign.PatchStatus) string {
	switch {
	case !p.Applies:
		return "not applicable"
	case p.Included:
		return "included"
	case p.Needed:
		return "needed"
	default:
		return "missing"
	}
}

func sortedDepKeys(deps map[string]string) []string {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

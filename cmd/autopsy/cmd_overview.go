package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autopsy/internal/display"
	"autopsy/internal/overview"
)

var overviewFlags profileFlags

var overviewCmd = &cobra.Command{
	Use:   "overview <measurement-id>",
	Short: "Build the bucketed overview table for a measurement",
	Long: `Builds (or reuses) the parquet overview artifact: per-bucket min/mean/max
for each signal, bucketed at the configured frequency. Prints the artifact
path and cache key.`,
	Args: cobra.ExactArgs(1),
	RunE: runOverview,
}

func init() {
	registerOverviewFlags(&overviewFlags, overviewCmd.Flags())
}

func runOverview(cmd *cobra.Command, args []string) error {
	store, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	profile, err := resolveProfile(cmd.Flags(), overviewFlags)
	if err != nil {
		return err
	}

	res, err := overview.Build(reg, store, args[0], profile.Overview)
	if err != nil {
		return fmt.Errorf("build overview: %w", err)
	}

	aggs := make([]string, len(res.Config.Agg))
	for i, a := range res.Config.Agg {
		aggs[i] = display.Aggregate(a)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key:        %s\n", res.Key)
	fmt.Fprintf(out, "Artifact:   %s\n", res.Path)
	fmt.Fprintf(out, "Aggregates: %s\n", strings.Join(aggs, ", "))
	fmt.Fprintf(out, "Cache hit:  %v\n", res.CacheHit)
	return nil
}

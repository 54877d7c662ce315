package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"autopsy/internal/format"
	"autopsy/internal/pass1"
	"autopsy/internal/report"
)

var pass1Flags struct {
	profileFlags
	asJSON   bool
	markdown bool
}

var pass1Cmd = &cobra.Command{
	Use:   "pass1 <measurement-id>",
	Short: "Run the first-pass anomaly scan on a measurement",
	Long: `Runs missing-data, flatline, and spike detection over the overview table
and merges per-signal flags into ranked anomaly windows. Results are
memoized per configuration; identical reruns replay the cached artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: runPass1,
}

func init() {
	f := pass1Cmd.Flags()
	registerOverviewFlags(&pass1Flags.profileFlags, f)
	registerPass1Flags(&pass1Flags.profileFlags, f)
	f.BoolVar(&pass1Flags.asJSON, "json", false, "Print the raw result JSON instead of the report")
	f.BoolVar(&pass1Flags.markdown, "markdown", false, "Render the report as Markdown")
}

func runPass1(cmd *cobra.Command, args []string) error {
	store, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	profile, err := resolveProfile(cmd.Flags(), pass1Flags.profileFlags)
	if err != nil {
		return err
	}

	res, err := pass1.NewCache(store, reg).Run(args[0], profile.Overview, profile.Pass1)
	if err != nil {
		return fmt.Errorf("pass1: %w", err)
	}

	out := cmd.OutOrStdout()
	if pass1Flags.asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	mode := format.ASCII
	if pass1Flags.markdown {
		mode = format.Markdown
	}
	fmt.Fprint(out, report.RenderResult(res, mode))
	return nil
}

package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"autopsy/internal/format"
	"autopsy/internal/pass1"
	"autopsy/internal/report"
	"autopsy/internal/wiring"
)

var scanFlags struct {
	profileFlags
	label    string
	parallel int
	markdown bool
}

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Register, build, and scan measurement files in one step",
	Long: `Runs the full flow for each file: register, build the overview, run the
first-pass scan, and print the report. Files are processed in parallel
when --parallel is greater than 1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	registerOverviewFlags(&scanFlags.profileFlags, f)
	registerPass1Flags(&scanFlags.profileFlags, f)
	f.StringVar(&scanFlags.label, "label", "", "Label applied to every registered file")
	f.IntVar(&scanFlags.parallel, "parallel", 1, "Number of files scanned concurrently")
	f.BoolVar(&scanFlags.markdown, "markdown", false, "Render reports as Markdown")
}

func runScan(cmd *cobra.Command, args []string) error {
	store, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	profile, err := resolveProfile(cmd.Flags(), scanFlags.profileFlags)
	if err != nil {
		return err
	}

	type scanned struct {
		path string
		res  *pass1.Result
	}
	var (
		mu      sync.Mutex
		results []scanned
	)

	g, _ := errgroup.WithContext(cmd.Context())
	limit := scanFlags.parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, path := range args {
		g.Go(func() error {
			res, err := wiring.ScanFile(store, reg, path, scanFlags.label, profile)
			if err != nil {
				return fmt.Errorf("scan %s: %w", path, err)
			}
			mu.Lock()
			results = append(results, scanned{path: path, res: res})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	mode := format.ASCII
	if scanFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()
	for _, s := range results {
		fmt.Fprintf(out, "=== %s ===\n", s.path)
		fmt.Fprint(out, report.RenderResult(s.res, mode))
		fmt.Fprintln(out)
	}
	return nil
}

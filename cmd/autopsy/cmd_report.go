package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopsy/internal/format"
	"autopsy/internal/pass1"
	"autopsy/internal/report"
)

var reportFlags struct {
	markdown bool
}

var reportCmd = &cobra.Command{
	Use:   "report <measurement-id> <result-key>",
	Short: "Render a previously computed scan result",
	Args:  cobra.ExactArgs(2),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportFlags.markdown, "markdown", false, "Render as Markdown")
}

func runReport(cmd *cobra.Command, args []string) error {
	store, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	res, err := pass1.NewCache(store, reg).Load(args[0], args[1])
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}

	mode := format.ASCII
	if reportFlags.markdown {
		mode = format.Markdown
	}
	fmt.Fprint(cmd.OutOrStdout(), report.RenderResult(res, mode))
	return nil
}

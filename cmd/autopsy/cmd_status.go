package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopsy/internal/display"
	"autopsy/internal/format"
	"autopsy/internal/report"
)

var statusFlags struct {
	id string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List registered measurements, or show one in detail",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.id, "id", "", "Show full metadata for one measurement ID")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	_, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	out := cmd.OutOrStdout()

	if statusFlags.id != "" {
		meta, err := reg.Metadata(statusFlags.id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report.RenderMeasurement(meta.MeasurementID, meta.Path, meta.Label, meta.Format, format.ASCII))
		if meta.ChannelCount > 0 {
			fmt.Fprintf(out, "Channels: %d", meta.ChannelCount)
			if meta.ChannelsTruncated {
				fmt.Fprintf(out, " (listing truncated)")
			}
			fmt.Fprintln(out)
		}
		if meta.MetadataError != "" {
			fmt.Fprintf(out, "Metadata note: %s\n", meta.MetadataError)
		}
		return nil
	}

	metas, err := reg.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Fprintln(out, "No measurements registered.")
		fmt.Fprintln(out, "Run 'autopsy register <file>' to add one.")
		return nil
	}

	tbl := format.NewTable(format.ASCII, "ID", "Label", "Format", "Path")
	tbl.LimitWidth(4, 60)
	for _, m := range metas {
		label := m.Label
		if label == "" {
			label = "-"
		}
		tbl.Row(m.MeasurementID, label, display.SourceFormat(m.Format), m.Path)
	}
	fmt.Fprintln(out, tbl.String())
	fmt.Fprintf(out, "%d measurement(s)\n", len(metas))
	return nil
}

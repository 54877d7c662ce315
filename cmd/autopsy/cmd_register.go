package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerFlags struct {
	label string
}

var registerCmd = &cobra.Command{
	Use:   "register <file>...",
	Short: "Register measurement files and print their IDs",
	Long: `Registers each file and prints its measurement ID. Registration is
idempotent: the same file content always resolves to the same ID, and
re-registering updates only the label.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerFlags.label, "label", "", "Human-readable label for the measurement(s)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	_, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	out := cmd.OutOrStdout()
	for _, path := range args {
		ref, err := reg.Register(path, registerFlags.label)
		if err != nil {
			return fmt.Errorf("register %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s  %s\n", ref.ID, ref.Path)
	}
	return nil
}

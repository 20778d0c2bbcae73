package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sofmeright/feedfreight/src/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Build manifest tooling",
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Parse and validate a build manifest without publishing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return err
		}
		fmt.Printf("ok: %d packages, %d blobs (build %s)\n", len(m.Packages), len(m.Blobs), m.Build.BuildID)
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestValidateCmd)
	rootCmd.AddCommand(manifestCmd)
}

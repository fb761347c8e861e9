package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shikhar190399/q-and-a-websockets/internal/platform/version"
)

var versionOutput string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeOutput(cmd, versionOutput, version.Get())
	},
}

// writeOutput encodes v to the command's stdout as json or yaml.
func writeOutput(cmd *cobra.Command, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "json", "output format: json or yaml")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionStr is set at build time with -ldflags "-X github.com/0chain/s3replicate/cmd.VersionStr=...".
var VersionStr = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the s3replicate version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "s3replicate %v\n", VersionStr)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

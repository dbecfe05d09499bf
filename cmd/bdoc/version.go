package main

import (
	"fmt"

	"github.com/Neumenon/bdoc/stream"
	"github.com/spf13/cobra"
)

const (
	libVersion    = "0.1.0"
	formatVersion = "1"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bdoc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bdoc %s (format %s, gs1 v%d)\n", libVersion, formatVersion, stream.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

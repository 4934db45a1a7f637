package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/version"
)

var VersionCmd = &cobra.Command{
	Use:          "version",
	Short:        "print the build version",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	RootCmd.AddCommand(VersionCmd)
}

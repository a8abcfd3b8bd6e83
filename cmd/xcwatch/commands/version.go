package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xcwatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xcwatch %s\n", version.Version)
	},
}

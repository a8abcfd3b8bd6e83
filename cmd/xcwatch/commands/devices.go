package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/utils/logger"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected iOS devices and simulators",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		ctx := logger.WithContext(context.Background(), logger.Get(nil))

		found := a.devices.List(ctx)
		if len(found) == 0 {
			fmt.Println("no devices found")
			return
		}
		for _, d := range found {
			fmt.Printf("%-30s %-15s %-12s %s\n", d.Name, d.Kind, d.State, d.UDID)
		}
	},
}

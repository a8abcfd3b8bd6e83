package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/config"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/pkg/export"
)

var (
	exportUDID  string
	exportLabel string
	exportDir   string
	exportSince int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save a simulator's recent logs to a file",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		ctx := logger.WithContext(context.Background(), logger.Get(nil))

		records := a.devices.Logs(ctx, exportUDID, 0, time.Duration(exportSince)*time.Minute)
		if len(records) == 0 {
			fmt.Println("no logs collected for that device")
			return
		}

		sink := a.sink
		if exportDir != "" {
			sink = export.NewFileSink(config.ExpandPath(exportDir))
		}
		label := exportLabel
		if label == "" {
			label = exportUDID
		}

		path, err := sink.Write(label, records)
		if err != nil {
			cmd.PrintErrf("cannot save logs: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved %d record(s) to %s\n", len(records), path)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUDID, "udid", "", "simulator UDID")
	exportCmd.Flags().StringVar(&exportLabel, "name", "", "label used in the file name")
	exportCmd.Flags().StringVar(&exportDir, "out", "", "destination directory")
	exportCmd.Flags().IntVar(&exportSince, "since-minutes", 10, "how far back to collect")
	_ = exportCmd.MarkFlagRequired("udid")
}

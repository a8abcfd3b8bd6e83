package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/capture"
	"github.com/xcwatch/xcwatch/internal/metrics"
	"github.com/xcwatch/xcwatch/internal/oslog"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
)

var (
	monitorMode       string
	monitorBundleID   string
	monitorProject    string
	monitorFile       string
	monitorUDID       string
	monitorDeviceName  string
	monitorDevices     bool
	monitorMetricsAddr string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream log records to stdout until interrupted",
	Long: `Start a capture session and print each parsed record. Watch rules from
the config file are evaluated against every record; matches are flagged.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		ctx := logger.WithContext(context.Background(), logger.Get(nil))

		rules, err := capture.CompileRules(cfg.Watch, func(rule string, rec oslog.Record) {
			fmt.Printf("!! rule %s matched: %s\n", rule, rec.Message)
		})
		if err != nil {
			cmd.PrintErrf("cannot compile watch rules: %v\n", err)
			os.Exit(1)
		}
		if rules.Len() > 0 {
			a.engine.AddObserver(rules.Observer())
		}
		a.engine.AddObserver(printRecord)

		params := capture.Params{
			BundleID:       monitorBundleID,
			ProjectName:    monitorProject,
			FilePath:       monitorFile,
			DeviceUDID:     monitorUDID,
			DeviceName:     monitorDeviceName,
			IncludeDevices: monitorDevices,
		}
		if monitorMetricsAddr != "" {
			go func() {
				if err := metrics.Serve(monitorMetricsAddr); err != nil {
					logger.Get(ctx).Warnf("metrics listener on %s failed: %v", monitorMetricsAddr, err)
				}
			}()
		}

		if err := a.engine.Start(ctx, capture.Mode(monitorMode), params); err != nil {
			cmd.PrintErrf("cannot start capture: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("capturing (%s mode), Ctrl-C to stop\n", monitorMode)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		a.engine.Stop()
		fmt.Printf("stopped, %d unread record(s) in buffer\n", a.engine.BufferLen())
	},
}

func printRecord(rec oslog.Record) {
	fmt.Printf("[%s] %-7s %s: %s\n",
		rec.Timestamp.Format("15:04:05.000"),
		strings.ToUpper(string(rec.Level)),
		rec.Process,
		rec.Message)
}

func init() {
	monitorCmd.Flags().StringVar(&monitorMode, "mode", string(capture.ModeGlobal), "capture mode: global, app, build, device, device-debug, file")
	monitorCmd.Flags().StringVar(&monitorBundleID, "bundle-id", "", "app bundle identifier")
	monitorCmd.Flags().StringVar(&monitorProject, "project", "", "project name (build mode)")
	monitorCmd.Flags().StringVar(&monitorFile, "file", "", "log file to follow (file mode)")
	monitorCmd.Flags().StringVar(&monitorUDID, "udid", "", "simulator UDID (device mode)")
	monitorCmd.Flags().StringVar(&monitorDeviceName, "device-name", "", "device name (device-debug mode)")
	monitorCmd.Flags().BoolVar(&monitorDevices, "include-devices", false, "include simulator processes in global mode")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

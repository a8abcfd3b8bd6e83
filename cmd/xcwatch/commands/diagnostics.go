package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/utils/fileutil"
	"github.com/xcwatch/xcwatch/internal/utils/logger"
)

var diagnosticsFile string

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics [project]",
	Short: "Extract build errors and warnings from the most recent build",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		ctx := logger.WithContext(context.Background(), logger.Get(nil))

		projectName := ""
		if len(args) > 0 {
			projectName = args[0]
		}

		var result diag.BuildResult
		if diagnosticsFile != "" {
			lines, err := fileutil.ReadLines(diagnosticsFile)
			if err != nil {
				logger.Get(ctx).Fatalf("read %s: %v", diagnosticsFile, err)
			}
			result = a.extractor.ParseLogContent(strings.Join(lines, "\n"), diagnosticsFile, time.Now())
		} else {
			result = a.extractor.ExtractBuildResult(ctx, projectName)
		}
		status := "succeeded"
		if !result.Success {
			status = "FAILED"
		}
		fmt.Printf("%s: last build %s, %d diagnostic(s)\n", result.ProjectName, status, len(result.Diagnostics))

		for _, d := range result.Diagnostics {
			if d.HasLocation() {
				fmt.Printf("  [%s] %s:%d:%d %s\n", strings.ToUpper(string(d.Severity)), d.File, d.Line, d.Column, d.Message)
			} else {
				fmt.Printf("  [%s] %s\n", strings.ToUpper(string(d.Severity)), d.Message)
			}
		}
	},
}

func init() {
	diagnosticsCmd.Flags().StringVar(&diagnosticsFile, "file", "", "classify a local build log file instead of probing")
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xcwatch/xcwatch/internal/capture"
	"github.com/xcwatch/xcwatch/internal/oslog"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and test configured watch rules",
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <log line>",
	Short: "Evaluate the configured watch rules against one log line",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var matched []string
		rs, err := capture.CompileRules(cfg.Watch, func(rule string, _ oslog.Record) {
			matched = append(matched, rule)
		})
		if err != nil {
			cmd.PrintErrf("rule compilation failed: %v\n", err)
			os.Exit(1)
		}
		if rs.Len() == 0 {
			fmt.Println("no watch rules configured")
			return
		}

		rec, ok := oslog.Parse(args[0])
		if !ok {
			// Bare text still exercises message-based rules.
			rec = oslog.Record{Message: args[0], Level: oslog.InferLevel(args[0])}
		}
		rs.Observer()(rec)

		if len(matched) == 0 {
			fmt.Printf("no rule matched (%d rule(s) evaluated)\n", rs.Len())
			return
		}
		for _, name := range matched {
			fmt.Printf("matched: %s\n", name)
		}
	},
}

func init() {
	rulesCmd.AddCommand(rulesTestCmd)
}

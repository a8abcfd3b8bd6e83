package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectsLimit int

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List recently built projects, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()

		names := a.locator.RecentProjects(projectsLimit)
		if len(names) == 0 {
			fmt.Println("no projects found in DerivedData")
			return
		}
		for i, name := range names {
			fmt.Printf("%d. %s\n", i+1, name)
		}
	},
}

func init() {
	projectsCmd.Flags().IntVar(&projectsLimit, "limit", 10, "maximum projects to list")
}

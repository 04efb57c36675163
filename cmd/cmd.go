package cmd

import (
	"fmt"
	"os"

	"github.com/dreamerjackson/statscraper/cmd/run"
	"github.com/dreamerjackson/statscraper/spider"
	"github.com/dreamerjackson/statscraper/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer(cmd.OutOrStdout())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list preset tasks.",
	Long:  "list the preset tasks that can be run by name.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range spider.TaskStore.Names() {
			t, _ := spider.TaskStore.Get(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, t.URL)
		}
	},
}

func Execute() {
	var rootCmd = &cobra.Command{Use: "statscraper", SilenceUsage: true}
	rootCmd.AddCommand(run.RunCmd, listCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

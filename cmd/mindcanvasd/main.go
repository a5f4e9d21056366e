// Command mindcanvasd runs the mind map persistence service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "2.0.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mindcanvasd",
		Short:   "mindcanvasd - mind map persistence service",
		Long:    `mindcanvasd stores mind maps for the mindcanvas editor and serves them over a JSON API.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

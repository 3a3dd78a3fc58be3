package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	flagURL     string
	flagActor   string
	flagJSON    bool
	flagDebug   bool
	flagNoColor bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "casectl",
		Short: "CLI for the Caseline backend",
		Long:  "A command-line interface for managing test cases, plans, environments, runs and executions in Caseline.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "API server URL (env: CASELINE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "Acting identity UUID (env: CASELINE_ACTOR)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("casectl %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCasesCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newEnvironmentsCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newExecutionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

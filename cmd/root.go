package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gogrouper",
	Short: "gogrouper - Write grouped GO ids to spreadsheets and text reports",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetupLogging("warn")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", pathutil.MustDefaultConfigPath(), "path to config file (.yaml or .toml)")
}

func SetVersion(v string) {
	rootCmd.Version = v
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

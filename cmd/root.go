package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guardpost/guardpost/internal/config"
)

// siteName is shown in page titles and the header.
const siteName = "Guardpost"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guardpost",
	Short: "Security staffing marketplace site server",
	Long: `Guardpost serves the marketplace website: static policy and pricing
pages, member profile editing, job listings, favorites, job search across
third-party providers and the chat widget. Member data lives in the remote
REST API; guardpost keeps only visitor sessions and local listings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(".env")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".guardpost.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

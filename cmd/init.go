package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guardpost/guardpost/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize guardpost configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the site server and writes the config file given by --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

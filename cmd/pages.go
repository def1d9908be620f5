package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guardpost/guardpost/internal/pages"
	"github.com/guardpost/guardpost/internal/progress"
	"github.com/guardpost/guardpost/internal/web"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Work with the static content pages",
}

var pagesBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the static pages to a directory",
	Long:  `Renders the markdown pages and the pricing table into a directory of HTML files that any static host can serve.`,
	RunE:  runPagesBuild,
}

func init() {
	pagesBuildCmd.Flags().String("output", "public", "output directory")
	pagesBuildCmd.Flags().Bool("quiet", false, "do not report progress")
	pagesCmd.AddCommand(pagesBuildCmd)
	rootCmd.AddCommand(pagesCmd)
}

func runPagesBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	lib, err := pages.NewLibrary(pages.ContentFS(cfg.Pages.ContentDir), cfg.Pages.Include, logger)
	if err != nil {
		return err
	}
	rd, err := web.NewRenderer(siteName, false, logger)
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("output")
	quiet, _ := cmd.Flags().GetBool("quiet")

	n, err := pages.Build(lib, rd, outDir, progress.NewReporter("Building pages", quiet))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d pages to %s\n", n, outDir)
	return nil
}

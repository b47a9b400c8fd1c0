package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/prettymuchbryce/gogrouper/internal/grouper"
	"github.com/prettymuchbryce/gogrouper/internal/report"
)

var (
	showTopN int
	showFlat bool
)

var showCmd = &cobra.Command{
	Use:   "show <grouping>",
	Short: "Preview a grouping as a tree without writing reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		osFs := afero.NewOsFs()
		cfg, _, err := loadConfig(cmd, osFs)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("top-n") {
			cfg.Content.TopN = showTopN
		}
		if cmd.Flags().Changed("flat") {
			sections := !showFlat
			cfg.Content.SectionPrt = &sections
		}
		return showGrouping(cmd, osFs, args[0], cfg.Content)
	},
}

func init() {
	showCmd.Flags().IntVar(&showTopN, "top-n", 0, "keep only the first N rows of each section")
	showCmd.Flags().BoolVar(&showFlat, "flat", false, "show one flat listing instead of sections")
	rootCmd.AddCommand(showCmd)
}

func showGrouping(cmd *cobra.Command, afs afero.Fs, path string, content grouper.ContentOptions) error {
	engine, err := grouper.Load(afs, path)
	if err != nil {
		return err
	}
	res, err := engine.Grouping(content)
	if err != nil {
		return err
	}
	return report.NewPreviewWithWriter(cmd.OutOrStdout(), engine.UserIDs()).Render(path, res)
}

package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/prettymuchbryce/gogrouper/internal/config"
	"github.com/prettymuchbryce/gogrouper/internal/widths"
)

var (
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(16)
)

var widthsCmd = &cobra.Command{
	Use:   "widths",
	Short: "Print the spreadsheet column width table",
	Long: `Print the spreadsheet column width table.

Layers are applied in order and later layers override earlier ones.
The config's xlsx.fld2col_widths forms the last layer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd, afero.NewOsFs())
		if err != nil {
			return err
		}
		printWidths(cmd.OutOrStdout(), cfg.WidthTable())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(widthsCmd)
}

// printWidths lists every layer of table, then the resolved widths. Resolved
// fields set by the config layer are flagged.
func printWidths(w io.Writer, table widths.Table) {
	var fromConfig map[string]int
	for _, layer := range table.Layers() {
		fmt.Fprintln(w, boldStyle.Render(layer.Name))
		printLayer(w, layer.Layer, nil)
		fmt.Fprintln(w)
		if layer.Name == config.WidthsLayer {
			fromConfig = layer.Layer
		}
	}
	fmt.Fprintln(w, boldStyle.Render("resolved"))
	printLayer(w, table.Resolve(nil), fromConfig)
}

// printLayer lists fields alphabetically; fields set in marked are flagged.
func printLayer(w io.Writer, layer map[string]int, marked map[string]int) {
	names := make([]string, 0, len(layer))
	for name := range layer {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		line := fmt.Sprintf("  %s%3d", labelStyle.Render(name), layer[name])
		if _, ok := marked[name]; ok {
			line += " " + dimStyle.Render("(config)")
		}
		fmt.Fprintln(w, line)
	}
}

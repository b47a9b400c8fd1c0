package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/prettymuchbryce/gogrouper/internal/config"
	"github.com/prettymuchbryce/gogrouper/internal/fs"
	"github.com/prettymuchbryce/gogrouper/internal/grouper"
	"github.com/prettymuchbryce/gogrouper/internal/record"
	"github.com/prettymuchbryce/gogrouper/internal/utils"
	"github.com/prettymuchbryce/gogrouper/internal/watcher"
	"github.com/prettymuchbryce/gogrouper/internal/writer"
)

// dumpFormat names the YAML copy of a rendered grouping.
const dumpFormat = "result.yaml"

var (
	writeDryRun   bool
	writeOutDir   string
	writeName     string
	writeFormats  []string
	writeConflict string
	writeTopN     int
	writeFlat     bool
	writeNoHdrs   bool
	writeDump     bool
	writeWatch    bool
)

var writeCmd = &cobra.Command{
	Use:   "write <grouping>...",
	Short: "Write spreadsheet and text reports for grouping files",
	Long: `Write spreadsheet and text reports for grouping files.

Each argument is a grouping file or a glob pattern (** is supported).
Every grouping is computed once and rendered to each requested format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		osFs := afero.NewOsFs()
		cfg, cfgPath, err := loadConfig(cmd, osFs)
		if err != nil {
			return err
		}
		applyWriteFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		var filesystem fs.FileSystem
		if writeDryRun {
			filesystem = fs.NewDryRun()
			fmt.Fprintln(cmd.OutOrStdout(), "Dry-run mode enabled (reports are not saved)")
		} else {
			filesystem = fs.NewReal()
		}

		inputs, err := expandInputs(filesystem, args)
		if err != nil {
			return err
		}

		r := &renderer{cfg: cfg, fs: filesystem, out: cmd.OutOrStdout(), dump: writeDump, now: time.Now}
		if err := r.RenderAll(inputs); err != nil && !writeWatch {
			return err
		}
		if !writeWatch {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		reload := func() (*config.Config, error) {
			cfg, err := config.LoadWithFs(cfgPath, osFs)
			if err != nil {
				return nil, err
			}
			applyWriteFlags(cmd, cfg)
			return cfg, cfg.Validate()
		}
		return watchInputs(ctx, r, cfgPath, inputs, reload)
	},
}

func init() {
	writeCmd.Flags().BoolVarP(&writeDryRun, "dry-run", "n", false, "render reports without saving them")
	writeCmd.Flags().StringVarP(&writeOutDir, "out-dir", "o", "", "directory for reports (default: next to each grouping file)")
	writeCmd.Flags().StringVar(&writeName, "name", "", "report file name template, e.g. '${name}_%Y%m%d.${format}'")
	writeCmd.Flags().StringSliceVarP(&writeFormats, "format", "f", nil, "report formats to write (xlsx, txt)")
	writeCmd.Flags().StringVar(&writeConflict, "on-conflict", "", "existing report handling: overwrite, rename_with_suffix, error")
	writeCmd.Flags().IntVar(&writeTopN, "top-n", 0, "keep only the first N rows of each section")
	writeCmd.Flags().BoolVar(&writeFlat, "flat", false, "write one flat listing instead of sections")
	writeCmd.Flags().BoolVar(&writeNoHdrs, "no-hdrgos", false, "omit header GO rows that are not user GO ids")
	writeCmd.Flags().BoolVar(&writeDump, "dump", false, "also save each grouping as YAML ("+dumpFormat+")")
	writeCmd.Flags().BoolVarP(&writeWatch, "watch", "w", false, "re-render when a grouping file or the config changes")
	rootCmd.AddCommand(writeCmd)
}

// applyWriteFlags overrides config values with flags the user set.
func applyWriteFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.Output.Dir = writeOutDir
	}
	if flags.Changed("name") {
		cfg.Output.Name = utils.OutputName(writeName)
	}
	if flags.Changed("format") {
		cfg.Output.Formats = writeFormats
	}
	if flags.Changed("on-conflict") {
		cfg.Output.Conflict = fs.ConflictMode(writeConflict)
	}
	if flags.Changed("top-n") {
		cfg.Content.TopN = writeTopN
	}
	if flags.Changed("flat") {
		sections := !writeFlat
		cfg.Content.SectionPrt = &sections
	}
	if flags.Changed("no-hdrgos") {
		hdrgos := !writeNoHdrs
		cfg.Content.HdrgoPrt = &hdrgos
	}
}

// renderer turns grouping files into reports according to a config.
type renderer struct {
	cfg  *config.Config
	fs   fs.FileSystem
	out  io.Writer
	dump bool
	now  func() time.Time
}

// RenderAll renders every input, continuing past failures. The first error
// is returned.
func (r *renderer) RenderAll(inputs []string) error {
	var first error
	for _, path := range inputs {
		if err := r.Render(path); err != nil {
			slog.Error("failed to render grouping", "path", path, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Render computes the grouping in path once and writes it in each
// configured format.
func (r *renderer) Render(path string) error {
	engine, err := grouper.Load(r.fs, path)
	if err != nil {
		return err
	}
	opts := r.cfg.WriterOptions()
	res, err := engine.Grouping(opts.Content)
	if err != nil {
		return err
	}

	dir := r.cfg.Output.Dir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	now := r.now()
	name := r.cfg.Output.Name
	if name == "" {
		name = utils.DefaultOutputName
	}

	w := writer.New(engine,
		writer.WithFs(r.fs),
		writer.WithConflict(r.cfg.Output.Conflict),
		writer.WithVersions(r.cfg.Versions),
		writer.WithStdout(r.out),
		writer.WithWidths(r.cfg.WidthTable()),
	)

	if r.cfg.WantsFormat(config.FormatXlsx) {
		dest := name.Path(dir, path, config.FormatXlsx, now)
		if err := r.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return &writer.WriteError{Path: dest, Err: err}
		}
		if _, err := w.WriteXlsxResult(dest, res, opts); err != nil {
			return err
		}
	}
	if r.cfg.WantsFormat(config.FormatTxt) {
		dest := name.Path(dir, path, config.FormatTxt, now)
		if err := r.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return &writer.WriteError{Path: dest, Err: err}
		}
		if _, err := w.WriteTxtResult(dest, res, opts.PrtFmt); err != nil {
			return err
		}
	}
	if r.dump {
		return r.dumpResult(name.Path(dir, path, dumpFormat, now), res)
	}
	return nil
}

func (r *renderer) dumpResult(dest string, res record.Result) error {
	doc, err := record.NewDocument(res)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := r.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &writer.WriteError{Path: dest, Err: err}
	}
	if err := afero.WriteFile(r.fs, dest, data, 0644); err != nil {
		return &writer.WriteError{Path: dest, Err: err}
	}
	fmt.Fprintf(r.out, "  DUMPED: %s\n", dest)
	return nil
}

// watchInputs re-renders a grouping file when it changes, and every input
// when the config file changes.
func watchInputs(ctx context.Context, r *renderer, cfgPath string, inputs []string, reload func() (*config.Config, error)) error {
	paths := append([]string{cfgPath}, inputs...)
	w, err := watcher.New(paths, time.Duration(r.cfg.Watch.Debounce), func(path string) error {
		if path != filepath.Clean(cfgPath) {
			return r.Render(path)
		}
		cfg, err := reload()
		if err != nil {
			return err
		}
		slog.Info("config reloaded", "path", cfgPath)
		SetupLogging(cfg.Logging.Level)
		r.cfg = cfg
		return r.RenderAll(inputs)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Watching %d files (Ctrl+C to stop)\n", w.WatchCount())
	return w.Run(ctx)
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/prettymuchbryce/gogrouper/internal/fields"
	"github.com/prettymuchbryce/gogrouper/internal/fs"
	"github.com/prettymuchbryce/gogrouper/internal/grouper"
	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
	"github.com/prettymuchbryce/gogrouper/internal/utils"
	"github.com/prettymuchbryce/gogrouper/internal/widths"
	"github.com/prettymuchbryce/gogrouper/internal/writer"
)

// Report formats.
const (
	FormatXlsx = "xlsx"
	FormatTxt  = "txt"
)

// WidthsLayer names the width layer built from xlsx.fld2col_widths.
const WidthsLayer = "config"

// Config represents the top-level configuration.
type Config struct {
	Logging  LoggingConfig          `yaml:"logging" toml:"logging"`
	Versions StringList             `yaml:"versions" toml:"versions"`
	Content  grouper.ContentOptions `yaml:"content" toml:"content"`
	Xlsx     XlsxConfig             `yaml:"xlsx" toml:"xlsx"`
	Txt      TxtConfig              `yaml:"txt" toml:"txt"`
	Output   OutputConfig           `yaml:"output" toml:"output"`
	Watch    WatchConfig            `yaml:"watch" toml:"watch"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// XlsxConfig holds spreadsheet format options.
type XlsxConfig struct {
	Title         string         `yaml:"title" toml:"title"`
	Hdrs          []string       `yaml:"hdrs" toml:"hdrs"`
	PrtFlds       []string       `yaml:"prt_flds" toml:"prt_flds"`
	Fld2ColWidths map[string]int `yaml:"fld2col_widths" toml:"fld2col_widths"`
}

// TxtConfig holds text format options.
type TxtConfig struct {
	PrtFmt string `yaml:"prtfmt" toml:"prtfmt"`
}

// OutputConfig controls where reports go.
type OutputConfig struct {
	Dir      string           `yaml:"dir" toml:"dir"`
	Name     utils.OutputName `yaml:"name" toml:"name"`
	Formats  StringList       `yaml:"formats" toml:"formats"`
	Conflict fs.ConflictMode  `yaml:"on_conflict" toml:"on_conflict"`
}

// WatchConfig represents watch-mode configuration.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce" toml:"debounce"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

// UnmarshalText parses s with time.ParseDuration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML parses a scalar duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalText formats d like time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: "warn",
	}
}

// DefaultOutputConfig returns the default output configuration.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Name:     utils.DefaultOutputName,
		Formats:  StringList{FormatXlsx, FormatTxt},
		Conflict: fs.ConflictOverwrite,
	}
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Debounce: Duration(500 * time.Millisecond),
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
		Output:  DefaultOutputConfig(),
		Watch:   DefaultWatchConfig(),
	}
}

// LoadWithFs reads and parses a configuration file using the provided
// filesystem. Files ending in .toml are parsed as TOML, anything else as YAML.
func LoadWithFs(path string, afs afero.Fs) (*Config, error) {
	expanded := pathutil.ExpandTilde(path)

	data, err := afero.ReadFile(afs, expanded)
	if err != nil {
		return nil, err
	}

	// Start with defaults
	config := Default()

	if strings.EqualFold(filepath.Ext(expanded), ".toml") {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", expanded, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks option values that the report writers would reject later.
func (c *Config) Validate() error {
	if !c.Output.Conflict.Valid() {
		return &fields.OptionError{Option: "on_conflict", Reason: fmt.Sprintf("unknown mode %q", c.Output.Conflict)}
	}
	for _, f := range c.Output.Formats {
		if f != FormatXlsx && f != FormatTxt {
			return &fields.OptionError{Option: "formats", Reason: fmt.Sprintf("unknown format %q", f)}
		}
	}
	if c.Content.TopN < 0 {
		return &fields.OptionError{Option: "top_n", Reason: fmt.Sprintf("must not be negative, got %d", c.Content.TopN)}
	}
	for fld, w := range c.Xlsx.Fld2ColWidths {
		if w <= 0 {
			return &fields.OptionError{Option: "fld2col_widths", Reason: fmt.Sprintf("width for %s must be positive, got %d", fld, w)}
		}
	}
	return nil
}

// WriterOptions converts the report sections into writer options.
// Configured column widths are served by WidthTable instead.
func (c *Config) WriterOptions() writer.Options {
	return writer.Options{
		Content: c.Content,
		Title:   c.Xlsx.Title,
		Hdrs:    c.Xlsx.Hdrs,
		PrtFlds: c.Xlsx.PrtFlds,
		PrtFmt:  c.Txt.PrtFmt,
	}
}

// WidthTable returns the built-in width table with the configured widths
// as a last layer.
func (c *Config) WidthTable() widths.Table {
	table := widths.Defaults()
	if len(c.Xlsx.Fld2ColWidths) == 0 {
		return table
	}
	return table.With(widths.Named{Name: WidthsLayer, Layer: c.Xlsx.Fld2ColWidths})
}

// WantsFormat reports whether reports in format should be written.
func (c *Config) WantsFormat(format string) bool {
	return c.Output.Formats.Contains(format)
}

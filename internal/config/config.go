package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/runger/vselect/internal/measure"
)

// Config represents the complete vselect configuration.
type Config struct {
	List    ListConfig    `yaml:"list" toml:"list"`
	Style   StyleConfig   `yaml:"style" toml:"style"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
}

// ListConfig controls windowing and row measurement.
type ListConfig struct {
	Overscan            int    `yaml:"overscan" toml:"overscan"`                           // Rows rendered beyond each viewport edge
	MaxHeight           int    `yaml:"max_height" toml:"max_height"`                       // Panel height cap in rows (0 = terminal height)
	DefaultHeight       int    `yaml:"default_height" toml:"default_height"`               // Height of a short label row
	ShortLabelThreshold int    `yaml:"short_label_threshold" toml:"short_label_threshold"` // Labels shorter than this many runes skip measurement
	FallbackWidth       int    `yaml:"fallback_width" toml:"fallback_width"`               // Container width when the terminal size is unknown
	ScrollbarWidth      int    `yaml:"scrollbar_width" toml:"scrollbar_width"`             // Columns reserved for the scrollbar
	LabelMaxWidth       int    `yaml:"label_max_width" toml:"label_max_width"`             // Clip labels to this many columns (0 = never)
	Measurer            string `yaml:"measurer" toml:"measurer"`                           // lipgloss or wrap
}

// StyleConfig describes the row box. Rendering and measurement share it.
type StyleConfig struct {
	PaddingVertical   int `yaml:"padding_vertical" toml:"padding_vertical"`
	PaddingHorizontal int `yaml:"padding_horizontal" toml:"padding_horizontal"`
	LineHeight        int `yaml:"line_height" toml:"line_height"`
	RowGap            int `yaml:"row_gap" toml:"row_gap"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	File   string `yaml:"file" toml:"file"`     // Log file path (overrides default)
	Format string `yaml:"format" toml:"format"` // json or console
}

// StorageConfig controls the remembered selections database.
type StorageConfig struct {
	RememberSelection bool   `yaml:"remember_selection" toml:"remember_selection"`
	DBPath            string `yaml:"db_path" toml:"db_path"` // Database path (overrides default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	params := measure.DefaultParams()
	style := measure.DefaultStyle()
	return &Config{
		List: ListConfig{
			Overscan:            10,
			MaxHeight:           10,
			DefaultHeight:       params.DefaultHeight,
			ShortLabelThreshold: params.ShortLabelThreshold,
			FallbackWidth:       params.FallbackWidth,
			ScrollbarWidth:      params.ScrollbarWidth,
			LabelMaxWidth:       0,
			Measurer:            "lipgloss",
		},
		Style: StyleConfig{
			PaddingVertical:   style.PaddingVertical,
			PaddingHorizontal: style.PaddingHorizontal,
			LineHeight:        style.LineHeight,
			RowGap:            style.RowGap,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			RememberSelection: true,
		},
	}
}

// MeasureParams returns the estimator parameters of the list section.
func (c *Config) MeasureParams() measure.Params {
	return measure.Params{
		DefaultHeight:       c.List.DefaultHeight,
		ShortLabelThreshold: c.List.ShortLabelThreshold,
		FallbackWidth:       c.List.FallbackWidth,
		ScrollbarWidth:      c.List.ScrollbarWidth,
	}
}

// MeasureStyle returns the row box of the style section.
func (c *Config) MeasureStyle() measure.Style {
	return measure.Style{
		PaddingVertical:   c.Style.PaddingVertical,
		PaddingHorizontal: c.Style.PaddingHorizontal,
		LineHeight:        c.Style.LineHeight,
		RowGap:            c.Style.RowGap,
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from the specified file. Files ending in
// .toml are TOML; anything else is YAML.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file, in the format its
// extension names.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Get retrieves a configuration value by dot-separated key.
// For example: "list.overscan" or "log.level"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "list":
		return c.getListField(field)
	case "style":
		return c.getStyleField(field)
	case "log":
		return c.getLogField(field)
	case "storage":
		return c.getStorageField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "list":
		return c.setListField(field, value)
	case "style":
		return c.setStyleField(field, value)
	case "log":
		return c.setLogField(field, value)
	case "storage":
		return c.setStorageField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

// listInts maps the integer fields of the list section.
func (c *Config) listInts() map[string]*int {
	return map[string]*int{
		"overscan":              &c.List.Overscan,
		"max_height":            &c.List.MaxHeight,
		"default_height":        &c.List.DefaultHeight,
		"short_label_threshold": &c.List.ShortLabelThreshold,
		"fallback_width":        &c.List.FallbackWidth,
		"scrollbar_width":       &c.List.ScrollbarWidth,
		"label_max_width":       &c.List.LabelMaxWidth,
	}
}

// styleInts maps the fields of the style section.
func (c *Config) styleInts() map[string]*int {
	return map[string]*int{
		"padding_vertical":   &c.Style.PaddingVertical,
		"padding_horizontal": &c.Style.PaddingHorizontal,
		"line_height":        &c.Style.LineHeight,
		"row_gap":            &c.Style.RowGap,
	}
}

func (c *Config) getListField(field string) (string, error) {
	if field == "measurer" {
		return c.List.Measurer, nil
	}
	if p, ok := c.listInts()[field]; ok {
		return strconv.Itoa(*p), nil
	}
	return "", fmt.Errorf("unknown field: list.%s", field)
}

func (c *Config) setListField(field, value string) error {
	if field == "measurer" {
		if !isValidMeasurer(value) {
			return fmt.Errorf("invalid measurer: %s (must be lipgloss or wrap)", value)
		}
		c.List.Measurer = value
		return nil
	}
	p, ok := c.listInts()[field]
	if !ok {
		return fmt.Errorf("unknown field: list.%s", field)
	}
	return setNonNegative(p, field, value)
}

func (c *Config) getStyleField(field string) (string, error) {
	if p, ok := c.styleInts()[field]; ok {
		return strconv.Itoa(*p), nil
	}
	return "", fmt.Errorf("unknown field: style.%s", field)
}

func (c *Config) setStyleField(field, value string) error {
	p, ok := c.styleInts()[field]
	if !ok {
		return fmt.Errorf("unknown field: style.%s", field)
	}
	return setNonNegative(p, field, value)
}

func setNonNegative(p *int, field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0", field)
	}
	*p = v
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	case "format":
		return c.Log.Format, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	case "format":
		if !isValidLogFormat(value) {
			return fmt.Errorf("invalid log format: %s (must be json or console)", value)
		}
		c.Log.Format = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func (c *Config) getStorageField(field string) (string, error) {
	switch field {
	case "remember_selection":
		return strconv.FormatBool(c.Storage.RememberSelection), nil
	case "db_path":
		return c.Storage.DBPath, nil
	default:
		return "", fmt.Errorf("unknown field: storage.%s", field)
	}
}

func (c *Config) setStorageField(field, value string) error {
	switch field {
	case "remember_selection":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for remember_selection: %w", err)
		}
		c.Storage.RememberSelection = v
	case "db_path":
		c.Storage.DBPath = value
	default:
		return fmt.Errorf("unknown field: storage.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for field, p := range c.listInts() {
		if *p < 0 {
			return fmt.Errorf("list.%s must be >= 0", field)
		}
	}
	for field, p := range c.styleInts() {
		if *p < 0 {
			return fmt.Errorf("style.%s must be >= 0", field)
		}
	}

	if c.List.DefaultHeight < 1 {
		return errors.New("list.default_height must be >= 1")
	}
	if c.List.FallbackWidth < 1 {
		return errors.New("list.fallback_width must be >= 1")
	}
	if c.Style.LineHeight < 1 {
		return errors.New("style.line_height must be >= 1")
	}

	if !isValidMeasurer(c.List.Measurer) {
		return fmt.Errorf("list.measurer must be lipgloss or wrap (got: %s)", c.List.Measurer)
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	if !isValidLogFormat(c.Log.Format) {
		return fmt.Errorf("log.format must be json or console (got: %s)", c.Log.Format)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	return format == "json" || format == "console"
}

func isValidMeasurer(name string) bool {
	return name == "lipgloss" || name == "wrap"
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Malformed values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VSELECT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("VSELECT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("VSELECT_OVERSCAN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.List.Overscan = n
		}
	}
	if v := os.Getenv("VSELECT_MAX_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.List.MaxHeight = n
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"list.overscan",
		"list.max_height",
		"list.default_height",
		"list.short_label_threshold",
		"list.fallback_width",
		"list.scrollbar_width",
		"list.label_max_width",
		"list.measurer",
		"style.padding_vertical",
		"style.padding_horizontal",
		"style.line_height",
		"style.row_gap",
		"log.level",
		"log.file",
		"log.format",
		"storage.remember_selection",
		"storage.db_path",
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-form-filler/internal/stamp"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FORM_FILLER_DIR
	EnvPrefix = "FORM_FILLER"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultCatalogName  = "forms_catalog.json"
	DefaultOutputSuffix = "_filled"
	DefaultCacheSize    = 32

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the form filler
type Config struct {
	// FormsDirectory confines every document, coordinates file and output
	FormsDirectory string
	// CatalogPath defaults to forms_catalog.json inside FormsDirectory
	CatalogPath  string
	OutputSuffix string

	// Default style, overridable per request
	FontFamily string
	FontSize   float64
	Bold       bool
	Color      string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum source PDF size in bytes
	CacheSize   int   // Number of parsed form definitions kept in memory
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		FormsDirectory: currentDir,
		OutputSuffix:   DefaultOutputSuffix,
		FontFamily:     stamp.DefaultFamily,
		FontSize:       stamp.DefaultFontSize,
		Bold:           stamp.DefaultBold,
		Color:          stamp.DefaultColor.Hex(),
		Version:        "1.0.0",
		ServerName:     "mcp-form-filler",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
		CacheSize:      DefaultCacheSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("dir", cfg.FormsDirectory)
	viper.SetDefault("catalog", cfg.CatalogPath)
	viper.SetDefault("suffix", cfg.OutputSuffix)
	viper.SetDefault("font", cfg.FontFamily)
	viper.SetDefault("fontsize", cfg.FontSize)
	viper.SetDefault("bold", cfg.Bold)
	viper.SetDefault("color", cfg.Color)
	viper.SetDefault("cachesize", cfg.CacheSize)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("dir", cfg.FormsDirectory, "Forms directory; all documents and outputs must live inside it")
	pflag.String("catalog", cfg.CatalogPath, "Forms catalog file (default <dir>/"+DefaultCatalogName+")")
	pflag.String("suffix", cfg.OutputSuffix, "Suffix appended to the source file name for filled output")
	pflag.String("font", cfg.FontFamily, "Default font family (Helvetica, Courier, Times-Roman)")
	pflag.Float64("fontsize", cfg.FontSize, "Default font size in points")
	pflag.Bool("bold", cfg.Bold, "Use the bold weight by default")
	pflag.String("color", cfg.Color, "Default text color as #RRGGBB")
	pflag.Int("cachesize", cfg.CacheSize, "Number of parsed form definitions kept in memory")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum source PDF size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"dir", "catalog", "suffix", "font", "fontsize", "bold", "color", "cachesize", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Filler - A Model Context Protocol server that fills paper-form PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/forms                         # catalog at /srv/forms/%s\n",
			os.Args[0], DefaultCatalogName)
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/forms --font=Courier --color=#000000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_DIR          Forms directory\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_CATALOG      Forms catalog file\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_SUFFIX       Output file suffix\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_FONT         Default font family\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_FONTSIZE     Default font size\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_BOLD         Default bold weight\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_COLOR        Default text color\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_CACHESIZE    Definition cache size\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOGLEVEL     Log level\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_MAXFILESIZE  Maximum file size\n", EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.FormsDirectory = viper.GetString("dir")
	cfg.CatalogPath = viper.GetString("catalog")
	cfg.OutputSuffix = viper.GetString("suffix")
	cfg.FontFamily = viper.GetString("font")
	cfg.FontSize = viper.GetFloat64("fontsize")
	cfg.Bold = viper.GetBool("bold")
	cfg.Color = viper.GetString("color")
	cfg.CacheSize = viper.GetInt("cachesize")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// resolvePaths makes the forms directory absolute and derives the default catalog path
func (c *Config) resolvePaths() {
	if c.FormsDirectory != "" {
		if abs, err := filepath.Abs(c.FormsDirectory); err == nil {
			c.FormsDirectory = abs
		}
	}
	if c.CatalogPath == "" && c.FormsDirectory != "" {
		c.CatalogPath = filepath.Join(c.FormsDirectory, DefaultCatalogName)
	} else if c.CatalogPath != "" && !filepath.IsAbs(c.CatalogPath) {
		c.CatalogPath = filepath.Join(c.FormsDirectory, c.CatalogPath)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FormsDirectory == "" {
		return errors.New("forms directory cannot be empty")
	}

	if _, err := os.Stat(c.FormsDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.FormsDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create forms directory %s: %w", c.FormsDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access forms directory %s: %w", c.FormsDirectory, err)
	}

	if strings.ContainsAny(c.OutputSuffix, `/\`) {
		return fmt.Errorf("output suffix must not contain path separators: %q", c.OutputSuffix)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.CacheSize <= 0 {
		return errors.New("cache size must be positive")
	}

	if _, err := stamp.GlobalStyle(c.Style()); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Style returns the configured default style as overrides of the built-in defaults
func (c *Config) Style() stamp.StyleOverrides {
	family, size, bold, color := c.FontFamily, c.FontSize, c.Bold, c.Color
	return stamp.StyleOverrides{
		FontFamily: &family,
		FontSize:   &size,
		Bold:       &bold,
		ColorHex:   &color,
	}
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{FormsDirectory: %s, CatalogPath: %s, Font: %s %g bold=%t %s, LogLevel: %s, "+
		"MaxFileSize: %d, CacheSize: %d}",
		c.FormsDirectory, c.CatalogPath, c.FontFamily, c.FontSize, c.Bold, c.Color, c.LogLevel,
		c.MaxFileSize, c.CacheSize)
}

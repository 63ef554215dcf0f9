// Package config loads the runtime configuration of the formpdf binary from
// flags, FORMPDF_* environment variables and defaults, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
)

// Modes of the binary.
const (
	ModeRender = "render"
	ModeHTTP   = "http"
	ModeMCP    = "mcp"
)

// Defaults.
const (
	DefaultMode      = ModeMCP
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8080
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultOutputDir = "out"
	DefaultBrandName = "formpdf"
	DefaultDirPerm   = 0o750

	envPrefix = "FORMPDF"
)

// Config holds the configuration of the binary.
type Config struct {
	Mode string
	Host string
	Port int

	FormsDir  string // extra form definitions, optional
	OutputDir string // render mode output

	LogLevel  string
	LogFormat string // "json" or "console"

	BrandName      string
	LogoPath       string
	LetterheadPath string
	Orientation    string // default orientation override, empty keeps the form's
	Draft          bool
	PageNumbers    bool

	Inputs []string // report files, render mode
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode:        DefaultMode,
		Host:        DefaultHost,
		Port:        DefaultPort,
		OutputDir:   DefaultOutputDir,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		BrandName:   DefaultBrandName,
		PageNumbers: true,
	}
}

// Load parses args (without the program name) on top of the environment.
func Load(args []string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("formpdf", pflag.ContinueOnError)
	fs.String("mode", cfg.Mode, "Mode: 'render' writes PDFs for report files, 'http' serves the API, 'mcp' speaks MCP on stdio")
	fs.String("host", cfg.Host, "HTTP listen host (http mode)")
	fs.Int("port", cfg.Port, "HTTP listen port (http mode)")
	fs.String("forms-dir", cfg.FormsDir, "Directory with extra form definitions (YAML)")
	fs.String("output-dir", cfg.OutputDir, "Output directory (render mode)")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", cfg.LogFormat, "Log format (json, console)")
	fs.String("brand-name", cfg.BrandName, "Brand name shown in the header when no logo is set")
	fs.String("logo", cfg.LogoPath, "Brand logo image (PNG, JPEG or GIF)")
	fs.String("letterhead", cfg.LetterheadPath, "Page background image (PNG, JPEG or GIF) drawn under every page")
	fs.String("orientation", cfg.Orientation, "Force page orientation (portrait, landscape)")
	fs.Bool("draft", cfg.Draft, "Stamp a BORRADOR watermark on every page")
	fs.Bool("page-numbers", cfg.PageNumbers, "Print 'Página N de M' in the footer")

	for _, key := range []string{
		"mode", "host", "port", "forms-dir", "output-dir", "log-level", "log-format",
		"brand-name", "logo", "letterhead", "orientation", "draft", "page-numbers",
	} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.FormsDir = v.GetString("forms-dir")
	cfg.OutputDir = v.GetString("output-dir")
	cfg.LogLevel = v.GetString("log-level")
	cfg.LogFormat = v.GetString("log-format")
	cfg.BrandName = v.GetString("brand-name")
	cfg.LogoPath = v.GetString("logo")
	cfg.LetterheadPath = v.GetString("letterhead")
	cfg.Orientation = v.GetString("orientation")
	cfg.Draft = v.GetBool("draft")
	cfg.PageNumbers = v.GetBool("page-numbers")
	cfg.Inputs = fs.Args()

	if cfg.FormsDir != "" {
		if abs, err := filepath.Abs(cfg.FormsDir); err == nil {
			cfg.FormsDir = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration. It does not touch the filesystem.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeRender, ModeHTTP, ModeMCP:
	default:
		return fmt.Errorf("mode must be one of render, http, mcp; got %q", c.Mode)
	}
	if c.Mode == ModeHTTP && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Mode == ModeRender {
		if len(c.Inputs) == 0 {
			return errors.New("render mode needs at least one report file")
		}
		if c.OutputDir == "" {
			return errors.New("output directory cannot be empty")
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := formpdf.ParseOrientation(c.Orientation); err != nil {
		return err
	}
	return nil
}

// Address is the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DocumentOptions turns the rendering settings into document options, reading
// the logo and letterhead files.
func (c *Config) DocumentOptions() ([]formpdf.Option, error) {
	brand := formpdf.Brand{Name: c.BrandName}
	if c.LogoPath != "" {
		data, err := os.ReadFile(c.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("config: reading logo: %w", err)
		}
		if _, err := formpdf.DetectImageType(data); err != nil {
			return nil, fmt.Errorf("config: logo %s: %w", c.LogoPath, err)
		}
		brand.Logo = data
	}

	opts := []formpdf.Option{
		formpdf.WithBrand(brand),
		formpdf.WithPageNumbers(c.PageNumbers),
	}
	if c.LetterheadPath != "" {
		data, err := os.ReadFile(c.LetterheadPath)
		if err != nil {
			return nil, fmt.Errorf("config: reading letterhead: %w", err)
		}
		if _, err := formpdf.DetectImageType(data); err != nil {
			return nil, fmt.Errorf("config: letterhead %s: %w", c.LetterheadPath, err)
		}
		opts = append(opts, formpdf.WithLetterhead(data))
	}
	if c.Orientation != "" {
		o, _ := formpdf.ParseOrientation(c.Orientation)
		opts = append(opts, formpdf.WithOrientation(o))
	}
	if c.Draft {
		opts = append(opts, formpdf.WithDraftWatermark("BORRADOR"))
	}
	return opts, nil
}

// NewLogger builds the process logger. Output goes to stderr so that stdout
// stays free for MCP traffic.
func NewLogger(c *Config) (*zap.Logger, error) {
	var zc zap.Config
	if c.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	switch c.LogLevel {
	case "debug":
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// EnsureOutputDir creates the output directory if needed.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("config: creating %s: %w", c.OutputDir, err)
	}
	return nil
}

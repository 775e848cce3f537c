// Package logging builds the charmbracelet logger shared by the binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Formats accepted by Config.Format.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Config holds logging configuration.
type Config struct {
	Level      string `yaml:"level" toml:"level"`
	Format     string `yaml:"format" toml:"format"`
	TimeFormat string `yaml:"timeFormat" toml:"timeFormat"`
	Caller     bool   `yaml:"caller" toml:"caller"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatText,
		TimeFormat: "15:04:05",
	}
}

// ParseFormat maps a format name onto a charmbracelet formatter.
func ParseFormat(name string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("logging: unknown format %q", name)
	}
}

// Validate reports an unknown level or format.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.levelName()); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	_, err := ParseFormat(c.Format)
	return err
}

// levelName maps trace onto debug, the most verbose charmbracelet level.
func (c Config) levelName() string {
	switch level := strings.ToLower(strings.TrimSpace(c.Level)); level {
	case "":
		return "info"
	case "trace":
		return "debug"
	default:
		return level
	}
}

// New builds a logger writing to w (stderr when nil).
func New(cfg Config, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level, err := log.ParseLevel(cfg.levelName())
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	formatter, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = DefaultConfig().TimeFormat
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		ReportCaller:    cfg.Caller,
		Prefix:          "formcrud",
	})
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables read by EnvironmentConfig.
const (
	EnvLevel      = "YTPICK_LOG_LEVEL"
	EnvFormat     = "YTPICK_LOG_FORMAT"
	EnvOutput     = "YTPICK_LOG_OUTPUT"
	EnvCaller     = "YTPICK_LOG_CALLER"
	EnvTimestamp  = "YTPICK_LOG_TIMESTAMP"
	EnvComponents = "YTPICK_LOG_COMPONENTS"
	// EnvConfigFile names a JSON LogConfig used as the base instead of the defaults.
	EnvConfigFile = "YTPICK_LOG_CONFIG"
)

// LogConfig is the string form of Config as it appears in files and the environment.
type LogConfig struct {
	Level      string          `json:"level"`
	Format     string          `json:"format"`
	Output     string          `json:"output"`
	Components map[string]bool `json:"components"`
	ShowCaller bool            `json:"show_caller"`
	Timestamp  bool            `json:"timestamp"`
}

// DefaultLogConfig mirrors DefaultConfig in string form.
func DefaultLogConfig() *LogConfig {
	def := DefaultConfig()
	components := make(map[string]bool, len(def.Components))
	for c, on := range def.Components {
		components[string(c)] = on
	}
	return &LogConfig{
		Level:      def.Level.String(),
		Format:     "text",
		Output:     "stderr",
		Components: components,
	}
}

// LoadConfigFromFile reads a JSON LogConfig. Keys missing from the file keep
// their defaults.
func LoadConfigFromFile(filename string) (*LogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultLogConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// ToLoggerConfig parses the string settings, opening the output if needed.
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}
	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool, len(c.Components))
	for name, enabled := range c.Components {
		components[Component(name)] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

var formatsByName = map[string]Format{
	"":        FormatText,
	"text":    FormatText,
	"json":    FormatJSON,
	"color":   FormatColor,
	"colored": FormatColor,
}

func parseFormat(name string) (Format, error) {
	if f, ok := formatsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return FormatText, fmt.Errorf("unknown format: %s", name)
}

// parseOutput accepts stdout, stderr, null/none or file:<path>.
func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(outputStr)) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}
	if !strings.HasPrefix(outputStr, "file:") {
		return nil, fmt.Errorf("unknown output: %s", outputStr)
	}
	filePath := strings.TrimPrefix(outputStr, "file:")
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// LoadConfig builds the process logging configuration: the file named by
// YTPICK_LOG_CONFIG (or the defaults), overridden by the other YTPICK_LOG_*
// variables that are set.
func LoadConfig() (*LogConfig, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigFile))
	if path == "" {
		return EnvironmentConfig(), nil
	}
	config, err := LoadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	return applyEnvironment(config), nil
}

// EnvironmentConfig starts from DefaultLogConfig and applies the YTPICK_LOG_*
// variables that are set.
func EnvironmentConfig() *LogConfig {
	return applyEnvironment(DefaultLogConfig())
}

func applyEnvironment(config *LogConfig) *LogConfig {
	if level := os.Getenv(EnvLevel); level != "" {
		config.Level = level
	}
	if format := os.Getenv(EnvFormat); format != "" {
		config.Format = format
	}
	if output := os.Getenv(EnvOutput); output != "" {
		config.Output = output
	}
	if on, ok := envBool(EnvCaller); ok {
		config.ShowCaller = on
	}
	if on, ok := envBool(EnvTimestamp); ok {
		config.Timestamp = on
	}

	// An explicit component list replaces the defaults.
	if components := os.Getenv(EnvComponents); components != "" {
		config.Components = make(map[string]bool)
		for _, comp := range strings.Split(components, ",") {
			comp = strings.TrimSpace(comp)
			if comp != "" {
				config.Components[comp] = true
			}
		}
	}

	return config
}

// envBool reads a boolean variable; unset or unparsable values are ignored.
func envBool(name string) (bool, bool) {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return false, false
	}
	return v, true
}

// ValidateConfig validates the configuration without opening any output.
func (c *LogConfig) ValidateConfig() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	switch out := strings.ToLower(strings.TrimSpace(c.Output)); {
	case out == "stdout", out == "stderr", out == "", out == "null", out == "none":
	case strings.HasPrefix(c.Output, "file:") && len(c.Output) > len("file:"):
	default:
		return fmt.Errorf("invalid output: %s", c.Output)
	}
	return nil
}

package iochan

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-iochan/internal/logging"
	"github.com/dzonerzy/go-iochan/style"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "IOCHAN_"

// Config holds the user-tunable settings of a registry and its prompts.
type Config struct {
	Color        style.ColorMode `mapstructure:"color" json:"color" yaml:"color" toml:"color"`
	RetryLimit   int             `mapstructure:"retry_limit" json:"retry_limit" yaml:"retry_limit" toml:"retry_limit"`
	LineEditing  bool            `mapstructure:"line_editing" json:"line_editing" yaml:"line_editing" toml:"line_editing"`
	HistoryFile  string          `mapstructure:"history_file" json:"history_file" yaml:"history_file" toml:"history_file"`
	HistoryLimit int             `mapstructure:"history_limit" json:"history_limit" yaml:"history_limit" toml:"history_limit"`
	StyleFile    string          `mapstructure:"style_file" json:"style_file" yaml:"style_file" toml:"style_file"`
	LogLevel     string          `mapstructure:"log_level" json:"log_level" yaml:"log_level" toml:"log_level"`
}

// configKeys lists every key in file and environment form.
var configKeys = []string{
	"color", "retry_limit", "line_editing", "history_file",
	"history_limit", "style_file", "log_level",
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Color:        style.ColorAuto,
		RetryLimit:   DefaultRetryLimit,
		LineEditing:  true,
		HistoryLimit: 500,
		LogLevel:     "info",
	}
}

// LoadConfig resolves settings with increasing precedence: defaults, the
// file at path (skipped when path is empty), then IOCHAN_* variables.
func LoadConfig(path string) (Config, error) {
	return LoadConfigWith(path, nil)
}

// LoadConfigWith is LoadConfig with a last layer of overrides above the
// environment, typically command-line flags. Keys use the file spelling.
func LoadConfigWith(path string, overrides map[string]any) (Config, error) {
	var layers []map[string]any
	if path != "" {
		m, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, m)
	}
	layers = append(layers, envConfig(os.LookupEnv), normalizeKeys(overrides))
	return resolveConfig(layers...)
}

func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("iochan: read config %s: %w", path, err)
	}
	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("iochan: config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("iochan: parse config %s: %w", path, err)
	}
	return normalizeKeys(raw), nil
}

// normalizeKeys lowercases keys and maps dashes to underscores, so
// "Retry-Limit" reads as "retry_limit".
func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[strings.ReplaceAll(strings.ToLower(k), "-", "_")] = v
	}
	return out
}

func envConfig(lookup func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for _, key := range configKeys {
		if v, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok {
			out[key] = v
		}
	}
	return out
}

// resolveConfig merges layers lowest precedence first and decodes the
// result over DefaultConfig.
func resolveConfig(layers ...map[string]any) (Config, error) {
	merged := map[string]any{}
	for _, l := range layers {
		mergeWithPrecedence(merged, l)
	}

	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(merged); err != nil {
		return Config{}, fmt.Errorf("iochan: config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeWithPrecedence copies src into dst, merging nested maps.
func mergeWithPrecedence(dst, src map[string]any) {
	for k, v := range src {
		if cur, ok := dst[k].(map[string]any); ok {
			if sub, ok := v.(map[string]any); ok {
				mergeWithPrecedence(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// Validate rejects negative limits and unknown log levels.
func (c Config) Validate() error {
	if c.RetryLimit < 0 {
		return fmt.Errorf("iochan: config: retry_limit must be >= 0, got %d", c.RetryLimit)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("iochan: config: history_limit must be >= 0, got %d", c.HistoryLimit)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("iochan: config: %w", err)
	}
	return nil
}

// ChannelOptions returns the options applied to console channels. The
// style file, when set, is loaded here.
func (c Config) ChannelOptions() ([]Option, error) {
	opts := []Option{
		WithColor(c.Color),
		WithLineEditing(c.LineEditing),
		WithHistory(c.HistoryFile, c.HistoryLimit),
	}
	if c.StyleFile != "" {
		spec, err := style.LoadSpec(c.StyleFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStyleSpec(spec))
	}
	return opts, nil
}

// Options returns registry options for c. Diagnostics go to logger, which
// may be nil.
func (c Config) Options(logger *slog.Logger) ([]RegistryOption, error) {
	chOpts, err := c.ChannelOptions()
	if err != nil {
		return nil, err
	}
	return []RegistryOption{WithChannelOptions(chOpts...), WithLogger(logger)}, nil
}

// NewRegistry builds a registry configured by c.
func (c Config) NewRegistry(logger *slog.Logger) (*Registry, error) {
	opts, err := c.Options(logger)
	if err != nil {
		return nil, err
	}
	return NewRegistry(opts...)
}

// PrompterOptions returns prompter options for c.
func (c Config) PrompterOptions() []PromptOption {
	return []PromptOption{WithRetryLimit(c.RetryLimit)}
}

// NewLogger returns a Logger on reg filtered at c.LogLevel.
func (c Config) NewLogger(reg *Registry) *Logger {
	lvl, _ := ParseLogLevel(c.LogLevel)
	return NewLogger(reg).WithLevel(lvl)
}

// DiagnosticsLogger returns a slog text logger on w at c.LogLevel. The
// "success" level maps to info.
func (c Config) DiagnosticsLogger(w io.Writer) *slog.Logger {
	lvl, ok := logging.ParseLevel(c.LogLevel)
	if !ok {
		lvl = slog.LevelInfo
	}
	return logging.New(w, lvl)
}

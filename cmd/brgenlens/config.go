package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/brgenlens/pkg/compiler"
	"github.com/gnana997/brgenlens/pkg/util"
	"github.com/gnana997/brgenlens/pkg/workspace"
)

const (
	configDir  = ".brgenlens"
	configFile = "config.yaml"
)

// ProjectConfig holds the contents of .brgenlens/config.yaml.
type ProjectConfig struct {
	Src2JSON     string   `koanf:"src2json" yaml:"src2json,omitempty"`
	Src2JSONArgs []string `koanf:"src2json_args" yaml:"src2json_args,omitempty"`
	LogLevel     string   `koanf:"log_level" yaml:"log_level,omitempty"`
	LogFormat    string   `koanf:"log_format" yaml:"log_format,omitempty"`
	CacheSize    int      `koanf:"cache_size" yaml:"cache_size,omitempty"`
	DebounceMs   int      `koanf:"debounce_ms" yaml:"debounce_ms,omitempty"`
	Workers      int      `koanf:"workers" yaml:"workers,omitempty"`
	Include      []string `koanf:"include" yaml:"include,omitempty"`
	Exclude      []string `koanf:"exclude" yaml:"exclude,omitempty"`
	MCPLog       string   `koanf:"mcp_log" yaml:"mcp_log,omitempty"`
}

func projectConfigPath(root string) string {
	return filepath.Join(root, configDir, configFile)
}

// loadProjectConfig reads .brgenlens/config.yaml under root.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig(root string) (*ProjectConfig, error) {
	path := projectConfigPath(root)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// defaultProjectConfig is what `brgenlens init` writes.
func defaultProjectConfig() ProjectConfig {
	scan := workspace.DefaultScanOptions()
	return ProjectConfig{
		Src2JSON:   compiler.DefaultBinary,
		LogLevel:   string(util.LevelInfo),
		LogFormat:  string(util.FormatText),
		CacheSize:  256,
		DebounceMs: workspace.DefaultWatchOptions().DebounceMs,
		Include:    scan.Include,
		Exclude:    scan.Exclude,
	}
}

// writeProjectConfig writes cfg to .brgenlens/config.yaml under root. An
// existing file is only replaced when force is set.
func writeProjectConfig(root string, cfg ProjectConfig, force bool) (string, error) {
	path := projectConfigPath(root)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	header := []byte("# brgenlens project configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// settings is the effective configuration after applying the fallback
// chain:
//  1. Explicit flag (or its environment variable)
//  2. .brgenlens/config.yaml
//  3. Built-in defaults
type settings struct {
	Root         string
	Src2JSON     string
	Src2JSONArgs []string
	LogLevel     util.LogLevel
	LogFormat    util.LogFormat
	CacheSize    int
	DebounceMs   int
	Workers      int
	Scan         workspace.ScanOptions
	MCPLog       string
}

// flagValues carries the raw global flag values. Zero values mean unset.
type flagValues struct {
	Root      string
	Src2JSON  string
	LogLevel  string
	LogFormat string
	Workers   int
	MCPLog    string
}

func resolveSettings(flags flagValues, cfg *ProjectConfig) (*settings, error) {
	if cfg == nil {
		cfg = &ProjectConfig{}
	}
	defaults := defaultProjectConfig()

	level, err := util.ParseLogLevel(firstNonEmpty(flags.LogLevel, cfg.LogLevel, defaults.LogLevel))
	if err != nil {
		return nil, err
	}
	format, err := util.ParseLogFormat(firstNonEmpty(flags.LogFormat, cfg.LogFormat, defaults.LogFormat))
	if err != nil {
		return nil, err
	}

	scan := workspace.DefaultScanOptions()
	if len(cfg.Include) > 0 {
		scan.Include = cfg.Include
	}
	if len(cfg.Exclude) > 0 {
		scan.Exclude = cfg.Exclude
	}
	scan.Workers = firstPositive(flags.Workers, cfg.Workers)

	return &settings{
		Root:         firstNonEmpty(flags.Root, "."),
		Src2JSON:     firstNonEmpty(flags.Src2JSON, cfg.Src2JSON, defaults.Src2JSON),
		Src2JSONArgs: cfg.Src2JSONArgs,
		LogLevel:     level,
		LogFormat:    format,
		CacheSize:    firstPositive(cfg.CacheSize, defaults.CacheSize),
		DebounceMs:   firstPositive(cfg.DebounceMs, defaults.DebounceMs),
		Workers:      scan.Workers,
		Scan:         scan,
		MCPLog:       firstNonEmpty(flags.MCPLog, cfg.MCPLog),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

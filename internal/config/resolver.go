// Package config resolves the analyzer configuration from three layers:
// a YAML config file, KLAUSEL_* environment variables and CLI flags, in
// ascending precedence. Every resolved value records where it came from so
// the CLI can explain the effective configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a configuration value with provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-flag layer into resolution.
type ResolveOptions struct {
	ConfigPath    string
	CLIDBPath     string
	CLIPolicyPath string
	CLIExtractors string
}

// ResolvedConfig is the effective configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath     ResolvedValue `json:"db_path"`
	PolicyPath ResolvedValue `json:"policy_path"`
	// Extractors is a comma-separated allow-list; empty means all.
	Extractors ResolvedValue `json:"extractors"`
}

type fileConfig struct {
	DBPath     string   `yaml:"db_path"`
	PolicyPath string   `yaml:"policy_path"`
	Extractors []string `yaml:"extractors"`
}

// DefaultConfigPath is where Resolve looks when no path is given.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".klausel", "config.yaml")
}

// Resolve builds the effective configuration. A missing config file is not
// an error; a malformed one is.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.PolicyPath, cfg.PolicyPath, SourceConfig, path)
		apply(&out.Extractors, strings.Join(cfg.Extractors, ","), SourceConfig, path)
	}

	applyEnv(&out.DBPath, "KLAUSEL_DB")
	applyEnv(&out.DBPath, "KLAUSEL_DB_PATH")
	applyEnv(&out.PolicyPath, "KLAUSEL_POLICY")
	applyEnv(&out.Extractors, "KLAUSEL_EXTRACTORS")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.PolicyPath, opts.CLIPolicyPath, SourceCLI, "--policy")
	apply(&out.Extractors, opts.CLIExtractors, SourceCLI, "--extractors")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}
	if out.PolicyPath.Value != "" {
		out.PolicyPath.Value = expandUserPath(out.PolicyPath.Value)
	}

	return out, nil
}

// AllowList splits the extractor allow-list into names. Nil means all
// extractors stay enabled.
func (r ResolvedConfig) AllowList() []string {
	raw := strings.TrimSpace(r.Extractors.Value)
	if raw == "" {
		return nil
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

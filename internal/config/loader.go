package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/analytics-agent/internal/schema"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "config.json"

// ConfigFileNameAlt are alternate config file names.
var ConfigFileNameAlt = []string{"config.yaml", "config.yml"}

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: ANALYTICS_AGENT_LLM__MODEL sets llm.model.
const EnvPrefix = "ANALYTICS_AGENT_"

// maxUpwardSearchLevels limits how far up the directory tree to search for a project.
const maxUpwardSearchLevels = 10

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range append([]string{ConfigFileName}, ConfigFileNameAlt...) {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// IsProject reports whether dir holds both a config file and a schema document.
func IsProject(dir string) bool {
	if FindConfigFile(dir) == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, schema.FileName))
	return err == nil
}

// FindProjectRoot searches upward from startDir for a project directory.
// Returns empty string if not found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if IsProject(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// NewKoanf layers defaults, the config file of dir and environment
// overrides. extra adds defaults for keys the project file does not own.
// Callers may load further providers before unmarshalling.
// It returns the config file used, or "" when dir has none.
func NewKoanf(dir string, extra map[string]any) (*koanf.Koanf, string, error) {
	k := koanf.New(".")

	defaults := Defaults()
	for key, v := range extra {
		defaults[key] = v
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile := FindConfigFile(dir)
	if cfgFile != "" {
		// config.json is read with the YAML parser; JSON is a subset of YAML.
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, "", &core.IOError{Path: cfgFile, Err: err}
		}
	}

	// ANALYTICS_AGENT_QUERY__MAX_ROWS -> query.max_rows
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	return k, cfgFile, nil
}

// Unmarshal decodes k into a ProjectConfig rooted at dir and expands
// ${VAR} references in secrets.
func Unmarshal(k *koanf.Koanf, dir string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Root = dir
	cfg.LLM.APIKey = ExpandEnvVars(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = ExpandEnvVars(cfg.LLM.BaseURL)
	return &cfg, nil
}

// LoadFromDir loads and validates the configuration of the project in dir.
// A directory without a config file is a *core.NotFoundError.
func LoadFromDir(dir string) (*ProjectConfig, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	k, cfgFile, err := NewKoanf(abs, nil)
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		return nil, &core.NotFoundError{Path: filepath.Join(abs, ConfigFileName)}
	}
	cfg, err := Unmarshal(k, abs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// Write stores cfg as dir/config.json. It fails if the file exists.
func Write(dir string, cfg *ProjectConfig) error {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &core.IOError{Path: path, Err: err}
	}

	data, err := marshalDocument(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config is not secret by default
		return &core.IOError{Path: path, Err: err}
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns in a string with environment variable values.
func ExpandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

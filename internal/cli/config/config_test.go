package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite"
)

func newProject(t *testing.T, cfgContent string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgContent), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), []byte(`{"tables": {}}`), 0o600))
	return dir
}

func newFlags(t *testing.T, dir string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-dir", "", "project directory")
	flags.String("model", "", "model")
	flags.String("store", "", "store type")
	flags.String("database", "", "database path")
	flags.BoolP("verbose", "v", false, "verbose")
	flags.StringP("output", "o", "", "output")
	if dir != "" {
		require.NoError(t, flags.Set("project-dir", dir))
	}
	return flags
}

func TestLoadConfig_ProjectDir(t *testing.T) {
	dir := newProject(t, `{"name": "sales"}`)

	cfg, err := LoadConfig(newFlags(t, dir))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "config.json"), cfg.ConfigFile)
	assert.True(t, cfg.InProject())
	assert.NoError(t, cfg.RequireProject())
	assert.Equal(t, "sales", cfg.Name)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join(dir, "data", "analytics.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath())
}

func TestLoadConfig_OutsideProject(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(newFlags(t, dir))
	require.NoError(t, err)

	assert.Empty(t, cfg.ConfigFile)
	assert.False(t, cfg.InProject())
	assert.ErrorIs(t, cfg.RequireProject(), ErrNotProject)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	dir := newProject(t, `{"llm": {"model": "from-file"}}`)
	t.Setenv("ANALYTICS_AGENT_LLM__MODEL", "from-env")

	flags := newFlags(t, dir)
	require.NoError(t, flags.Set("model", "from-flag"))
	require.NoError(t, flags.Set("output", "json"))
	require.NoError(t, flags.Set("verbose", "true"))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.LLM.Model, "flag value should override config file and env var")
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	dir := newProject(t, `{"llm": {"model": "from-file"}}`)
	t.Setenv("ANALYTICS_AGENT_LLM__MODEL", "from-env")

	// Flag declared but not set, so Changed is false
	cfg, err := LoadConfig(newFlags(t, dir))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Model, "env var should override config file")
}

func TestLoadConfig_StoreFlag(t *testing.T) {
	dir := newProject(t, `{}`)

	flags := newFlags(t, dir)
	require.NoError(t, flags.Set("store", "duckdb"))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Store.Type)
}

func TestLoadConfig_DatabaseFlagRelativeToCWD(t *testing.T) {
	dir := newProject(t, `{}`)

	flags := newFlags(t, dir)
	require.NoError(t, flags.Set("database", "other.db"))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)

	want, _ := filepath.Abs("other.db")
	assert.Equal(t, want, cfg.DatabasePath())
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	dir := newProject(t, `{"store": {"type": "mysql"}}`)

	_, err := LoadConfig(newFlags(t, dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
	assert.Contains(t, err.Error(), "sqlite")
}

func TestInferProjectRoot_SearchesUpward(t *testing.T) {
	dir := newProject(t, `{}`)
	nested := filepath.Join(dir, "reports", "q1")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	assert.Equal(t, dir, inferProjectRoot(nil))
}

func TestInferProjectRoot_DefaultsToCWD(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got := inferProjectRoot(nil)
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotResolved)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestGetConfig(t *testing.T) {
	assert.Nil(t, GetConfig(context.Background()))

	cfg := &Config{OutputFormat: "json"}
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}

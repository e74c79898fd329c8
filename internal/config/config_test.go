package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFromDir_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"name": "sales"}`)

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "sales", cfg.Name)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultStoreType, cfg.Store.Type)
	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLM.Timeout)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultQueryTimeout, cfg.Query.Timeout)
	assert.Equal(t, DefaultMaxRows, cfg.Query.MaxRows)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, filepath.Join(dir, "data", "analytics.db"), cfg.DatabasePath())
}

func TestLoadFromDir_FileValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{
  "name": "ops",
  "database": "store/ops.db",
  "llm": {"provider": "openai-compatible", "model": "llama3", "base_url": "http://localhost:11434/v1", "timeout": "5s"},
  "server": {"port": 8080},
  "query": {"timeout": "2s", "max_rows": 50}
}`)

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "store/ops.db", cfg.Database)
	assert.Equal(t, "openai-compatible", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Query.Timeout)
	assert.Equal(t, 50, cfg.Query.MaxRows)

	tc := cfg.TranslatorConfig()
	assert.Equal(t, "sqlite", tc.Dialect)
	assert.Equal(t, 5*time.Second, tc.Timeout)
}

func TestLoadFromDir_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "name: yml\nserver:\n  port: 9000\n")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "yml", cfg.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadFromDir_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"name": "env", "llm": {"model": "from-file"}}`)

	t.Setenv("ANALYTICS_AGENT_LLM__MODEL", "from-env")
	t.Setenv("ANALYTICS_AGENT_SERVER__PORT", "4000")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadFromDir_ExpandsAPIKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"llm": {"api_key": "${TEST_AGENT_KEY}"}}`)
	t.Setenv("TEST_AGENT_KEY", "sk-test")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadFromDir_Missing(t *testing.T) {
	_, err := LoadFromDir(t.TempDir())
	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLoadFromDir_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown store", `{"store": {"type": "oracle"}}`, "unknown adapter type"},
		{"bad port", `{"server": {"port": 70000}}`, "out of range"},
		{"empty database", `{"database": ""}`, "database is required"},
		{"negative max rows", `{"query": {"max_rows": -1}}`, "max_rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ConfigFileName), tt.content)

			_, err := LoadFromDir(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_UnknownAdapterError(t *testing.T) {
	cfg := New("x")
	cfg.Store.Type = "nope"

	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, cfg.Validate(), &unknown)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), `{}`)
	writeFile(t, filepath.Join(root, "schema.json"), `{"tables": {}}`)
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, root, FindProjectRoot(root))
}

func TestFindProjectRoot_RequiresSchema(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), `{}`)

	assert.False(t, IsProject(root))
	assert.Empty(t, FindProjectRoot(root))
}

func TestDatabasePath(t *testing.T) {
	cfg := &ProjectConfig{Database: "data/a.db", Root: "/srv/p"}
	assert.Equal(t, filepath.Join("/srv/p", "data", "a.db"), cfg.DatabasePath())

	cfg.Database = "/abs/a.db"
	assert.Equal(t, "/abs/a.db", cfg.DatabasePath())

	cfg.Database = "postgres://analyst@db:5432/sales"
	assert.Equal(t, "postgres://analyst@db:5432/sales", cfg.DatabasePath())

	cfg = &ProjectConfig{Database: "rel.db", Store: StoreConfig{Type: "DuckDB"}}
	assert.Equal(t, "rel.db", cfg.DatabasePath())
	assert.Equal(t, "duckdb", cfg.AdapterConfig().Type)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, New("demo")))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultPort, cfg.Server.Port)

	err = Write(dir, New("demo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")
	assert.Equal(t, "alpha-x", ExpandEnvVars("${TEST_EXPAND_A}-x"))
	assert.Equal(t, "${TEST_EXPAND_UNSET}", ExpandEnvVars("${TEST_EXPAND_UNSET}"))
	assert.Equal(t, "plain", ExpandEnvVars("plain"))
}

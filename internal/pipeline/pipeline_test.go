package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/executor"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/internal/testutil"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revenueCSV = "date,revenue\n2024-01,100\n2024-02,150\n2024-03,200\n"

type fixture struct {
	dir     string
	p       *Pipeline
	history *state.SQLiteStore
}

func sqlTranslator(sql string) core.Translator {
	return core.TranslatorFunc(func(_ context.Context, _ string, _ *core.ProjectSchema) (*core.Translation, error) {
		return &core.Translation{SQL: sql, ChartType: "line", XAxis: "date", YAxis: "revenue", Title: "Revenue"}, nil
	})
}

func newFixture(t *testing.T, tr core.Translator) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "proj")
	_, err := Scaffold(dir, time.Now())
	require.NoError(t, err)

	history := state.NewSQLiteStore()
	require.NoError(t, history.Open(":memory:"))
	require.NoError(t, history.Migrate())
	t.Cleanup(func() { _ = history.Close() })

	p, err := New(Config{
		ProjectDir: dir,
		Adapter:    core.AdapterConfig{Type: "sqlite", Path: filepath.Join(dir, DataDir, "analytics.db")},
		Translator: tr,
		Query:      executor.Options{Timeout: 5 * time.Second},
		History:    history,
		Logger:     testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return &fixture{dir: dir, p: p, history: history}
}

func (f *fixture) writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")

	ps, err := Scaffold(dir, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, ps.Tables)
	assert.Equal(t, core.SchemaVersion, ps.Version)
	assert.DirExists(t, filepath.Join(dir, DataDir))
	assert.FileExists(t, filepath.Join(dir, "schema.json"))

	_, err = Scaffold(dir, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLoadThenAsk(t *testing.T) {
	f := newFixture(t, sqlTranslator(`SELECT date, SUM(revenue) AS revenue FROM sales GROUP BY date`))
	ctx := context.Background()

	res, err := f.p.Load(ctx, LoadRequest{Source: f.writeCSV(t, "sales.csv", revenueCSV)})
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, "sales", res.Table.Name)
	assert.Equal(t, int64(3), res.Table.RowCount)
	require.Len(t, res.Table.Columns, 2)
	assert.Equal(t, core.TypeDate, res.Table.Columns[0].Type)
	assert.Equal(t, core.TypeNumber, res.Table.Columns[1].Type)
	assert.Equal(t, "REAL", res.Table.Columns[1].StorageType)

	ans, err := f.p.Ask(ctx, "  revenue by month? ")
	require.NoError(t, err)
	assert.Equal(t, "revenue by month?", ans.Question)
	assert.Equal(t, "line", ans.ChartType)
	assert.Equal(t, "date", ans.XAxis)
	assert.Equal(t, "revenue", ans.YAxis)
	assert.Equal(t, "Revenue", ans.Title)
	assert.Equal(t, 3, ans.RowCount)
	assert.Equal(t, []string{"date", "revenue"}, ans.Columns)
	assert.Contains(t, ans.Results, map[string]any{"date": "2024-02", "revenue": float64(150)})

	queries, err := f.history.ListQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, state.OutcomeSuccess, queries[0].Outcome)
	assert.Equal(t, 3, queries[0].RowCount)

	loads, err := f.history.ListLoads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, state.LoadStatusSuccess, loads[0].Status)
	assert.Equal(t, int64(3), loads[0].RowCount)
}

func TestLoad_ReloadReplacesEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := f.writeCSV(t, "sales.csv", revenueCSV)

	_, err := f.p.Load(ctx, LoadRequest{Source: path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("date,revenue\n2024-04,1\n"), 0o600))
	res, err := f.p.Load(ctx, LoadRequest{Source: path})
	require.NoError(t, err)
	assert.True(t, res.Replaced)

	ps, err := f.p.Schema()
	require.NoError(t, err)
	require.Len(t, ps.Tables, 1)
	assert.Equal(t, int64(1), ps.Tables[0].RowCount)

	qr, err := f.p.Query(ctx, `SELECT COUNT(*) AS n FROM "sales"`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, qr.Rows[0]["n"])
}

func TestLoad_TableOverrideIsSanitized(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.p.Load(context.Background(), LoadRequest{
		Source: f.writeCSV(t, "x.csv", revenueCSV),
		Table:  "Q1 Revenue!",
	})
	require.NoError(t, err)
	assert.Equal(t, "q1_revenue_", res.Table.Name)
}

func TestLoad_EmptyInputLeavesSchema(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.p.Load(context.Background(), LoadRequest{Source: f.writeCSV(t, "empty.csv", "a,b\n")})
	var empty *core.EmptyInputError
	require.ErrorAs(t, err, &empty)

	ps, err := f.p.Schema()
	require.NoError(t, err)
	assert.Empty(t, ps.Tables)

	loads, err := f.history.ListLoads(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, state.LoadStatusFailed, loads[0].Status)
}

func TestLoad_MissingSource(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.p.Load(context.Background(), LoadRequest{Source: filepath.Join(t.TempDir(), "nope.csv")})
	var ioErr *core.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestQuery_MissingStoreReportsPath(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.p.Query(context.Background(), "SELECT 1")
	var ioErr *core.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, filepath.Join(f.dir, DataDir, "analytics.db"), ioErr.Path)
}

func TestStoreLocation(t *testing.T) {
	assert.Equal(t, "data/analytics.db", storeLocation("data/analytics.db"))
	assert.Equal(t, "postgres://analyst:xxxxx@db:5432/sales", storeLocation("postgres://analyst:secret@db:5432/sales"))
	assert.Equal(t, "postgres://db/sales", storeLocation("postgres://db/sales"))
}

func TestLoad_UninitializedProject(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{
		ProjectDir: dir,
		Adapter:    core.AdapterConfig{Type: "sqlite", Path: filepath.Join(dir, "a.db")},
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(revenueCSV), 0o600))

	_, err = p.Load(context.Background(), LoadRequest{Source: path})
	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.NoFileExists(t, filepath.Join(dir, "a.db"))
}

func TestLoad_ConcurrentLoadsKeepEveryTable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		path := f.writeCSV(t, fmt.Sprintf("t%d.csv", i), revenueCSV)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.p.Load(ctx, LoadRequest{Source: path})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	ps, err := f.p.Schema()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t0", "t1", "t2", "t3"}, ps.TableNames())
}

func TestAsk_NoTables(t *testing.T) {
	called := false
	f := newFixture(t, core.TranslatorFunc(func(context.Context, string, *core.ProjectSchema) (*core.Translation, error) {
		called = true
		return nil, nil
	}))

	_, err := f.p.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, core.ErrNoTables)
	assert.False(t, called)
}

func TestAsk_SchemaNotFound(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{
		ProjectDir: dir,
		Adapter:    core.AdapterConfig{Type: "sqlite", Path: filepath.Join(dir, "a.db")},
		Translator: sqlTranslator("SELECT 1"),
	})
	require.NoError(t, err)

	_, err = p.Ask(context.Background(), "q")
	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tr      core.Translator
		kind    string
		outcome state.QueryOutcome
		wantSQL string
	}{
		{
			name:    "unsafe sql",
			tr:      sqlTranslator("DELETE FROM sales"),
			kind:    "validation",
			outcome: state.OutcomeRejected,
			wantSQL: "DELETE FROM sales",
		},
		{
			name:    "unknown table",
			tr:      sqlTranslator("SELECT * FROM missing"),
			kind:    "execution",
			outcome: state.OutcomeExecutionError,
			wantSQL: "SELECT * FROM missing",
		},
		{
			name: "provider failure",
			tr: core.TranslatorFunc(func(context.Context, string, *core.ProjectSchema) (*core.Translation, error) {
				return nil, errors.New("connection refused")
			}),
			kind:    "translator",
			outcome: state.OutcomeTranslatorError,
		},
		{
			name:    "empty sql",
			tr:      sqlTranslator("  "),
			kind:    "translator",
			outcome: state.OutcomeTranslatorError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.tr)
			ctx := context.Background()
			_, err := f.p.Load(ctx, LoadRequest{Source: f.writeCSV(t, "sales.csv", revenueCSV)})
			require.NoError(t, err)

			res, err := f.p.Ask(ctx, "q")
			require.Error(t, err)
			assert.Equal(t, tt.kind, core.ErrorKind(err))
			if tt.wantSQL != "" {
				require.NotNil(t, res)
				assert.Equal(t, tt.wantSQL, res.SQL)
				assert.Nil(t, res.Results)
			}

			queries, err := f.history.ListQueries(ctx, 10)
			require.NoError(t, err)
			require.Len(t, queries, 1)
			assert.Equal(t, tt.outcome, queries[0].Outcome)
			assert.NotEmpty(t, queries[0].Reason)
		})
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newFixture(t, sqlTranslator("SELECT 1"))
	_, err := f.p.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_NoTranslator(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.p.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoTranslator)
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, state.OutcomeSuccess, outcomeFor(nil))
	assert.Equal(t, state.OutcomeRejected, outcomeFor(&core.ValidationError{Reason: "x"}))
	assert.Equal(t, state.OutcomeError, outcomeFor(errors.New("boom")))
}

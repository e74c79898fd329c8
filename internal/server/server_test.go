package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/leapstack-labs/analytics-agent/internal/project"
	"github.com/leapstack-labs/analytics-agent/internal/testutil"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject scaffolds a project and loads csv into table "sales" when given.
func newProject(t *testing.T, csv string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "proj")
	_, err := pipeline.Scaffold(dir, time.Now())
	require.NoError(t, err)
	require.NoError(t, config.Write(dir, config.New("proj")))

	if csv != "" {
		src := filepath.Join(t.TempDir(), "sales.csv")
		require.NoError(t, os.WriteFile(src, []byte(csv), 0o600))

		p, err := project.Open(dir, nil, nil)
		require.NoError(t, err)
		_, err = p.Pipeline.Load(context.Background(), pipeline.LoadRequest{Source: src})
		require.NoError(t, err)
		require.NoError(t, p.Close())
	}
	return dir
}

func newTestServer(t *testing.T, defaultDir string, tr core.Translator) *httptest.Server {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	srv := NewServer(Config{
		DefaultProject: defaultDir,
		Logger:         logger,
		Open: func(dir string) (*project.Project, error) {
			cfg, err := config.LoadFromDir(dir)
			if err != nil {
				return nil, err
			}
			if !config.IsProject(dir) {
				return nil, &core.NotFoundError{Path: dir}
			}
			return project.New(cfg, tr, logger)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(func() {
		ts.Close()
		cancel()
		_ = srv.Close()
	})
	return ts
}

func fixedSQL(sql string) core.Translator {
	return core.TranslatorFunc(func(context.Context, string, *core.ProjectSchema) (*core.Translation, error) {
		return &core.Translation{SQL: sql, ChartType: "bar", XAxis: "date", YAxis: "revenue", Title: "Revenue by month"}, nil
	})
}

func postAsk(t *testing.T, ts *httptest.Server, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/ask", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

const salesCSV = "date,revenue\n2024-01,100\n2024-02,150\n2024-03,200\n"

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "", nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.WithinDuration(t, time.Now(), body.Timestamp, time.Minute)
}

func TestAsk_Success(t *testing.T) {
	dir := newProject(t, salesCSV)
	ts := newTestServer(t, "", fixedSQL(`SELECT date, SUM(revenue) AS revenue FROM sales GROUP BY date ORDER BY date`))

	resp, body := postAsk(t, ts, AskRequest{Question: "revenue by month", ProjectPath: dir})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	assert.Equal(t, "revenue by month", body["question"])
	assert.Equal(t, "bar", body["chartType"])
	assert.Equal(t, "date", body["xAxis"])
	assert.Equal(t, "revenue", body["yAxis"])
	assert.Equal(t, "Revenue by month", body["title"])
	assert.EqualValues(t, 3, body["rowCount"])
	results := body["results"].([]any)
	require.Len(t, results, 3)
	assert.Equal(t, map[string]any{"date": "2024-01", "revenue": float64(100)}, results[0])
}

func TestAsk_DefaultProject(t *testing.T) {
	dir := newProject(t, salesCSV)
	ts := newTestServer(t, dir, fixedSQL(`SELECT COUNT(*) AS n FROM sales`))

	resp, body := postAsk(t, ts, AskRequest{Question: "how many rows"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 1, body["rowCount"])
}

func TestAsk_Errors(t *testing.T) {
	loaded := newProject(t, salesCSV)
	empty := newProject(t, "")

	tests := []struct {
		name    string
		dir     string
		tr      core.Translator
		body    any
		status  int
		kind    string
		wantSQL string
	}{
		{
			name:    "unsafe sql",
			dir:     loaded,
			tr:      fixedSQL("DROP TABLE sales"),
			body:    AskRequest{Question: "drop it", ProjectPath: loaded},
			status:  http.StatusBadRequest,
			kind:    "validation",
			wantSQL: "DROP TABLE sales",
		},
		{
			name:    "execution error",
			dir:     loaded,
			tr:      fixedSQL("SELECT nope FROM sales"),
			body:    AskRequest{Question: "q", ProjectPath: loaded},
			status:  http.StatusInternalServerError,
			kind:    "execution",
			wantSQL: "SELECT nope FROM sales",
		},
		{
			name: "translator error",
			dir:  loaded,
			tr: core.TranslatorFunc(func(context.Context, string, *core.ProjectSchema) (*core.Translation, error) {
				return nil, &core.TranslatorError{Err: errors.New("rate limited")}
			}),
			body:   AskRequest{Question: "q", ProjectPath: loaded},
			status: http.StatusInternalServerError,
			kind:   "translator",
		},
		{
			name:   "no tables",
			dir:    empty,
			tr:     fixedSQL("SELECT 1"),
			body:   AskRequest{Question: "q", ProjectPath: empty},
			status: http.StatusBadRequest,
			kind:   "no_tables",
		},
		{
			name:   "schema not found",
			tr:     fixedSQL("SELECT 1"),
			body:   AskRequest{Question: "q", ProjectPath: t.TempDir()},
			status: http.StatusBadRequest,
			kind:   "not_found",
		},
		{
			name:   "empty question",
			dir:    loaded,
			tr:     fixedSQL("SELECT 1"),
			body:   AskRequest{Question: " ", ProjectPath: loaded},
			status: http.StatusBadRequest,
			kind:   "bad_request",
		},
		{
			name:   "no project",
			tr:     fixedSQL("SELECT 1"),
			body:   AskRequest{Question: "q"},
			status: http.StatusBadRequest,
			kind:   "bad_request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "", tt.tr)

			resp, body := postAsk(t, ts, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
			if tt.wantSQL != "" {
				assert.Equal(t, tt.wantSQL, body["sql"])
			} else {
				assert.NotContains(t, body, "sql")
			}
		})
	}
}

func TestAsk_MalformedBody(t *testing.T) {
	ts := newTestServer(t, "", nil)

	resp, err := http.Post(ts.URL+"/ask", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "bad_request", body.Kind)
}

func TestTablesAndHistory(t *testing.T) {
	dir := newProject(t, salesCSV)
	ts := newTestServer(t, dir, fixedSQL("SELECT * FROM sales"))

	resp, err := http.Get(ts.URL + "/tables")
	require.NoError(t, err)
	var tables TablesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tables))
	_ = resp.Body.Close()
	require.Len(t, tables.Tables, 1)
	assert.Equal(t, "sales", tables.Tables[0].Name)
	assert.Equal(t, int64(3), tables.Tables[0].RowCount)

	_, _ = postAsk(t, ts, AskRequest{Question: "everything"})

	resp, err = http.Get(ts.URL + "/history?limit=5")
	require.NoError(t, err)
	var history HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	_ = resp.Body.Close()
	require.Len(t, history.Loads, 1)
	assert.Equal(t, "success", history.Loads[0].Status)
	require.Len(t, history.Queries, 1)
	assert.Equal(t, "everything", history.Queries[0].Question)
	assert.Equal(t, "success", history.Queries[0].Outcome)

	resp, err = http.Get(ts.URL + "/history?limit=zero")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, "", nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/ask", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEvents_SchemaChange(t *testing.T) {
	dir := newProject(t, "")
	ts := newTestServer(t, dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	src := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(src, []byte("id\n1\n"), 0o600))
	p, err := project.Open(dir, nil, nil)
	require.NoError(t, err)
	_, err = p.Pipeline.Load(context.Background(), pipeline.LoadRequest{Source: src})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed before a schema event")
			if line == "event: schema" {
				return
			}
		case <-deadline:
			t.Fatal("no schema event received")
		}
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(kindOf(core.ErrNoTables)))
	assert.Equal(t, http.StatusBadRequest, statusFor(kindOf(&core.NotFoundError{Path: "x"})))
	assert.Equal(t, http.StatusBadRequest, statusFor(kindOf(&core.ValidationError{Reason: "r"})))
	assert.Equal(t, http.StatusConflict, statusFor(kindOf(core.ErrLocked)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(kindOf(&core.IOError{Path: "x", Err: errors.New("e")})))
	assert.Equal(t, http.StatusInternalServerError, statusFor(kindOf(errors.New("boom"))))
}

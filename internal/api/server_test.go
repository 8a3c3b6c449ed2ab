package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskseek/diskseek/internal/config"
	"github.com/diskseek/diskseek/internal/logger"
	"github.com/diskseek/diskseek/internal/platform"
	"github.com/diskseek/diskseek/internal/progress"
	"github.com/diskseek/diskseek/internal/scheduler"
	"github.com/diskseek/diskseek/internal/search"
	"github.com/diskseek/diskseek/internal/volume"
)

type fakeSearch struct {
	mu       sync.Mutex
	criteria []search.Criteria
	matches  []search.Match
	block    bool
}

func (f *fakeSearch) Search(ctx context.Context, criteria search.Criteria) []search.Match {
	f.mu.Lock()
	f.criteria = append(f.criteria, criteria)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
	}
	return append([]search.Match{}, f.matches...)
}

func (f *fakeSearch) last() search.Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.criteria[len(f.criteria)-1]
}

type fakeVolumes []volume.Info

func (f fakeVolumes) List() []volume.Info { return f }

type fakeLogs struct {
	entries []logger.LogEntry
	path    string
}

func (f fakeLogs) GetRecentLogs() []logger.LogEntry { return f.entries }
func (f fakeLogs) GetLogFilePath() string           { return f.path }

type testServer struct {
	*Server
	search   *fakeSearch
	revealed []string
}

func setupTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()

	ts := &testServer{
		search: &fakeSearch{matches: []search.Match{
			{Path: "/vol/b/zeta.txt", Name: "zeta.txt", Size: 1, SourceRoot: "/vol/b"},
			{Path: "/vol/a/alpha.txt", Name: "alpha.txt", Size: 9, SourceRoot: "/vol/a"},
		}},
	}

	deps := Deps{
		Config:   config.Default(),
		Search:   ts.search,
		Volumes:  fakeVolumes{{Label: "Data", MountPoint: "/vol", TotalBytes: 100, AvailableBytes: 40}},
		Progress: progress.NewManager(nil, zerolog.Nop()),
		Logs: fakeLogs{entries: []logger.LogEntry{
			{Level: "info", Component: "api", Message: "one"},
			{Level: "info", Component: "searcher", Message: "two"},
			{Level: "warn", Component: "volume", Message: "three"},
			{Level: "debug", Component: "searcher", Message: "four"},
		}},
		Reveal: func(_ context.Context, path string) error {
			ts.revealed = append(ts.revealed, path)
			switch path {
			case "/missing":
				return fmt.Errorf("%w: /missing", platform.ErrPathNotFound)
			case "/broken":
				return errors.New("failed to launch xdg-open")
			}
			return nil
		},
	}
	if mutate != nil {
		mutate(&deps)
	}

	ts.Server = NewServer(deps, zerolog.Nop())
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestStatus(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, config.Version, got.Version)
	assert.Equal(t, 1, got.Volumes)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestListVolumes(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/volumes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []volume.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "/vol", got[0].MountPoint)
	assert.Equal(t, uint64(40), got[0].AvailableBytes)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/search?query=Report&extension=.txt&volume=/vol&folders=true&sort=path", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, search.Criteria{
		Query:              "Report",
		Extension:          ".txt",
		IncludeDirectories: true,
		Volume:             "/vol",
	}, ts.search.last())

	var got []search.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "/vol/a/alpha.txt", got[0].Path)
	assert.Equal(t, "/vol/a", got[0].SourceRoot)
	assert.Empty(t, rec.Header().Get(HeaderSearchPartial))

	activities := ts.progress.List()
	require.Len(t, activities, 1)
	assert.Equal(t, progress.ActivityTypeSearch, activities[0].Type)
	assert.Equal(t, progress.StatusCompleted, activities[0].Status)
	assert.Equal(t, 2, activities[0].Metadata["matches"])
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.search.matches = nil

	rec := ts.do(http.MethodGet, "/api/v1/search", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, search.Criteria{}, ts.search.last())
}

func TestSearch_BadParameters(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"folders", "folders=maybe"},
		{"desc", "desc=sideways"},
		{"sort", "sort=date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/search?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearch_TimeoutReturnsPartial(t *testing.T) {
	ts := setupTestServer(t, func(d *Deps) {
		d.Config.Search.Timeout = 20 * time.Millisecond
	})
	ts.search.block = true

	rec := ts.do(http.MethodGet, "/api/v1/search?query=a&sort=size&desc=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(HeaderSearchPartial))

	var got []search.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].Size)

	activities := ts.progress.List()
	require.Len(t, activities, 1)
	assert.Equal(t, true, activities[0].Metadata["partial"])
}

func TestReveal(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"path":"/vol/a/alpha.txt"}`, http.StatusNoContent},
		{"empty", `{"path":""}`, http.StatusBadRequest},
		{"malformed", `{"path":`, http.StatusBadRequest},
		{"missing", `{"path":"/missing"}`, http.StatusNotFound},
		{"launch failure", `{"path":"/broken"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/v1/reveal", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, []string{"/vol/a/alpha.txt", "/missing", "/broken"}, ts.revealed)
}

func TestReveal_FailureReasonInBody(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/reveal", `{"path":"/broken"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to launch xdg-open")
}

func TestLogs(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/system/logs?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []logger.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Message)

	rec = ts.do(http.MethodGet, "/api/v1/system/logs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/system/logs?level=loud", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/system/logs/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogs_Filters(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"one", "two", "three", "four"}},
		{"?level=info", []string{"one", "two", "three"}},
		{"?level=WARN", []string{"three"}},
		{"?component=searcher", []string{"two", "four"}},
		{"?component=api,%20volume", []string{"one", "three"}},
		{"?component=searcher&level=info", []string{"two"}},
		{"?level=debug&limit=1", []string{"four"}},
		{"?limit=0", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/system/logs"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got []logger.LogEntry
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			messages := []string{}
			for _, e := range got {
				messages = append(messages, e.Message)
			}
			assert.Equal(t, tt.want, messages)
		})
	}
}

func TestTasks(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = sched.Stop() }()

	ran := make(chan struct{}, 1)
	require.NoError(t, sched.RegisterTask(scheduler.TaskConfig{
		ID:   "volume-refresh",
		Name: "Volume Refresh",
		Cron: "*/5 * * * *",
		Func: func(context.Context) error {
			ran <- struct{}{}
			return nil
		},
	}))

	ts := setupTestServer(t, func(d *Deps) { d.Scheduler = sched })

	rec := ts.do(http.MethodGet, "/api/v1/system/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"volume-refresh"`)

	rec = ts.do(http.MethodGet, "/api/v1/system/tasks/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/system/tasks/volume-refresh/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestServer_CrossOrigin(t *testing.T) {
	ts := setupTestServer(t, func(d *Deps) {
		d.Config.Server.AllowedOrigins = []string{"http://localhost:5173"}
	})

	send := func(method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/v1/search?query=alpha", nil)
		req.Header.Set(echo.HeaderOrigin, origin)
		if method == http.MethodOptions {
			req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
		}
		rec := httptest.NewRecorder()
		ts.Echo().ServeHTTP(rec, req)
		return rec
	}

	t.Run("foreign origin", func(t *testing.T) {
		rec := send(http.MethodGet, "https://evil.example")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.NotContains(t, rec.Body.String(), "alpha.txt")
	})

	t.Run("foreign preflight", func(t *testing.T) {
		rec := send(http.MethodOptions, "https://evil.example")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})

	t.Run("same origin", func(t *testing.T) {
		rec := send(http.MethodGet, "http://example.com")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})

	t.Run("listed origin", func(t *testing.T) {
		rec := send(http.MethodGet, "http://localhost:5173")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})

	t.Run("foreign reveal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reveal", strings.NewReader(`{"path":"/vol/a"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderOrigin, "https://evil.example")
		rec := httptest.NewRecorder()
		ts.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, ts.revealed)
	})
}

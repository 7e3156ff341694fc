package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/pipeline"
	"github.com/colmmemedsurv/sentinelnode/internal/store"
)

func serveDirs(t *testing.T) (docs, data string) {
	t.Helper()
	docs = t.TempDir()
	data = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "head-neck-cancer.xml"), []byte(`<?xml version="1.0"?><rss version="2.0"></rss>`), 0o644))
	require.NoError(t, pipeline.WriteJSON(filepath.Join(data, pipeline.RunReportFile), model.RunReport{RawItems: 7}))
	return docs, data
}

func TestServeRouter_Health(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeRouter_StaticFeed(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/head-neck-cancer.xml", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<rss version="2.0">`)
}

func TestServeRouter_StaticMissing(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing.xml", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeRouter_Report(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var report model.RunReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, 7, report.RawItems)
}

func TestServeRouter_RunsWithoutStore(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	for _, path := range []string{"/api/runs", "/api/runs/abc"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}
}

func TestServeRouter_Runs(t *testing.T) {
	docs, data := serveDirs(t)
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, run.ID, &model.RunReport{CuratedItems: 3}))

	h := newServeRouter(docs, data, st)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs?limit=10", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, 3, got.Report.CuratedItems)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeRouter_CORS(t *testing.T) {
	docs, data := serveDirs(t)
	h := newServeRouter(docs, data, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://reader.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

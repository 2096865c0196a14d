package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/state"
	"github.com/leapstack-labs/leapview/internal/testutil"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

var testNow = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

const testDataDir = "../erp/testdata/data"

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	catalog, err := erp.Load(context.Background(), testDataDir, nil, logger)
	require.NoError(t, err)

	cfg := Config{
		Catalog: catalog,
		DataDir: testDataDir,
		Options: view.Options{Now: func() time.Time { return testNow }},
		Logger:  logger,
	}
	if withStore {
		store := state.NewSQLiteStore()
		require.NoError(t, store.Open(":memory:"))
		require.NoError(t, store.InitSchema())
		t.Cleanup(func() { _ = store.Close() })
		cfg.Store = store
	}

	ts := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func send(t *testing.T, ts *httptest.Server, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

type tableJSON struct {
	Dataset string           `json:"dataset"`
	Rows    [][]any          `json:"rows"`
	Total   int              `json:"total"`
	Matched int              `json:"matched"`
	Page    core.PageInfo    `json:"page"`
	Stats   []core.Statistic `json:"stats"`
}

func decodeTable(t *testing.T, body []byte) tableJSON {
	t.Helper()
	var tbl tableJSON
	require.NoError(t, json.Unmarshal(body, &tbl), string(body))
	return tbl
}

func TestHandler_Health(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := get(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","datasets":4}`, string(body))
}

func TestHandler_Datasets(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := get(t, ts, "/api/datasets")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var infos []erp.Info
	require.NoError(t, json.Unmarshal(body, &infos))
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"budget", "invoices", "issues", "reimbursements"}, names)

	resp, body = get(t, ts, "/api/datasets/invoices")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Name    string          `json:"name"`
		Aging   bool            `json:"aging"`
		Columns []core.Column   `json:"columns"`
		Stats   []core.StatSpec `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "invoices", detail.Name)
	assert.True(t, detail.Aging)
	assert.NotEmpty(t, detail.Columns)
	assert.NotEmpty(t, detail.Stats)

	resp, _ = get(t, ts, "/api/datasets/payroll")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Rows(t *testing.T) {
	ts := newTestServer(t, false)

	t.Run("defaults", func(t *testing.T) {
		resp, body := get(t, ts, "/api/datasets/reimbursements/rows")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tbl := decodeTable(t, body)
		assert.Equal(t, 4, tbl.Total)
		assert.Equal(t, 4, tbl.Matched)
		require.Len(t, tbl.Rows, 4)
		assert.Equal(t, "RC-2025-003", tbl.Rows[0][0])
	})

	t.Run("filter search and paging", func(t *testing.T) {
		resp, body := get(t, ts, "/api/datasets/reimbursements/rows?q=rao&sort=amount:desc&size=1&page=2&stat=total_amount&scope=filtered")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tbl := decodeTable(t, body)
		assert.Equal(t, 2, tbl.Matched)
		assert.Equal(t, core.PageInfo{Page: 2, Size: 1, Pages: 2}, tbl.Page)
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, "RC-2025-001", tbl.Rows[0][0])
		require.Len(t, tbl.Stats, 1)
		assert.InDelta(t, 6200, tbl.Stats[0].Value, 0.001)
	})

	t.Run("field filter", func(t *testing.T) {
		_, body := get(t, ts, "/api/datasets/reimbursements/rows?f.claim_type=Medical")
		assert.Equal(t, 1, decodeTable(t, body).Matched)
	})

	t.Run("date range", func(t *testing.T) {
		_, body := get(t, ts, "/api/datasets/reimbursements/rows?from=2025-02-01&to=2025-03-05")
		assert.Equal(t, 2, decodeTable(t, body).Matched)
	})

	for name, path := range map[string]string{
		"bad sort direction": "/api/datasets/reimbursements/rows?sort=amount:up-and-down",
		"unknown filter":     "/api/datasets/reimbursements/rows?f.colour=red",
		"unsortable field":   "/api/datasets/reimbursements/rows?sort=description",
		"bad page":           "/api/datasets/reimbursements/rows?page=two",
		"unknown stat":       "/api/datasets/reimbursements/rows?stat=nope",
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := get(t, ts, path)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}
}

func TestHandler_Stats(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := get(t, ts, "/api/datasets/budget/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out statsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "budget", out.Dataset)
	assert.Equal(t, 2, out.Total)
	require.NotEmpty(t, out.Stats)
	assert.InDelta(t, 150000, out.Stats[0].Value, 0.001)
}

func TestHandler_Reports(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := get(t, ts, "/api/datasets/invoices/aging?as_of=2025-03-15")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var aging core.AgingReport
	require.NoError(t, json.Unmarshal(body, &aging))
	assert.Equal(t, 3, aging.Count)
	assert.InDelta(t, 3012, aging.Amount, 0.001)

	resp, _ = get(t, ts, "/api/datasets/invoices/aging?as_of=someday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts, "/api/datasets/reimbursements/aging")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, ts, "/api/datasets/issues/sla?warn_days=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sla core.SLAReport
	require.NoError(t, json.Unmarshal(body, &sla))
	assert.Equal(t, 1, sla.Breached)
	assert.Equal(t, 1, sla.AtRisk)

	resp, _ = get(t, ts, "/api/datasets/issues/sla?warn_days=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Export(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := get(t, ts, "/api/datasets/reimbursements/export.csv?f.payment_mode=bank_transfer&size=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "reimbursements_2025-03-15.csv")

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3, "paging is ignored on export")
	assert.True(t, strings.HasPrefix(lines[0], "claim_number,"))

	resp, body = get(t, ts, "/api/datasets/invoices/export.xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip archive")

	resp, _ = get(t, ts, "/api/datasets/invoices/export.pdf")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Views(t *testing.T) {
	ts := newTestServer(t, true)

	v := core.SavedView{
		Name:    "engineering",
		Dataset: "reimbursements",
		Query: core.Query{
			Criteria: core.Criteria{Filters: map[string]string{"department": "Engineering"}},
			Sort:     core.SortSpec{Field: "amount", Direction: core.DirAsc},
		},
	}
	resp, body := send(t, ts, http.MethodPost, "/api/views", v)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = get(t, ts, "/api/views?dataset=reimbursements")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []core.SavedView
	require.NoError(t, json.Unmarshal(body, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "engineering", views[0].Name)
	assert.NotEmpty(t, views[0].Query.Stats, "default stats are stored with the view")

	resp, body = get(t, ts, "/api/views/engineering/rows")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tbl := decodeTable(t, body)
	assert.Equal(t, 3, tbl.Matched)
	assert.Equal(t, "RC-2025-003", tbl.Rows[0][0])

	bad := v
	bad.Name = "broken"
	bad.Query.Sort = core.SortSpec{Field: "colour", Direction: core.DirAsc}
	resp, _ = send(t, ts, http.MethodPost, "/api/views", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = send(t, ts, http.MethodDelete, "/api/views/engineering", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = get(t, ts, "/api/views/engineering")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Snapshots(t *testing.T) {
	ts := newTestServer(t, true)

	resp, _ := get(t, ts, "/api/datasets/budget/snapshots/diff")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for range 2 {
		resp, body := send(t, ts, http.MethodPost, "/api/datasets/budget/snapshots", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := get(t, ts, "/api/datasets/budget/snapshots")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snaps []core.Snapshot
	require.NoError(t, json.Unmarshal(body, &snaps))
	assert.Len(t, snaps, 2)

	resp, body = get(t, ts, "/api/datasets/budget/snapshots/diff")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var diff struct {
		Changes []core.StatChange `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(body, &diff))
	require.NotEmpty(t, diff.Changes)
	for _, c := range diff.Changes {
		assert.Equal(t, core.ChangeUnchanged, c.Change, c.Name)
	}
}

func TestHandler_NoStore(t *testing.T) {
	ts := newTestServer(t, false)

	resp, _ := get(t, ts, "/api/views")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = get(t, ts, "/api/datasets/budget/snapshots")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandler_Metrics(t *testing.T) {
	ts := newTestServer(t, false)

	get(t, ts, "/api/datasets/issues/rows")
	get(t, ts, "/api/datasets/budget/rows")

	resp, body := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `leapview_http_requests_total{code="200",method="GET",route="/api/datasets/{name}/rows"} 2`)
	assert.Contains(t, text, `leapview_dataset_records{dataset="invoices"} 5`)
}

func TestParamsFrom(t *testing.T) {
	values := map[string][]string{
		"q":          {"rao"},
		"f.status":   {"open", "closed"},
		"f.":         {"ignored"},
		"stat":       {"a,b", " c "},
		"page":       {"3"},
		"date_field": {"due_date"},
	}
	p, err := paramsFrom(values)
	require.NoError(t, err)
	assert.Equal(t, "rao", p.Search)
	assert.Equal(t, map[string]string{"status": "closed"}, p.Filters)
	assert.Equal(t, []string{"a", "b", "c"}, p.Stats)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, "due_date", p.DateField)

	_, err = paramsFrom(map[string][]string{"size": {"ten"}})
	assert.Error(t, err)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{erp.ErrUnknownDataset, http.StatusNotFound},
		{state.ErrNotFound, http.StatusNotFound},
		{erp.ErrNotSupported, http.StatusNotFound},
		{view.ErrNotSortable, http.StatusBadRequest},
		{badRequest(io.EOF), http.StatusBadRequest},
		{errNoStore, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

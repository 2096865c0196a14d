package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/export"
	"github.com/leapstack-labs/leapview/internal/state"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

var errNoStore = errors.New("state store not configured")

type handlers struct {
	catalog *erp.Catalog
	store   core.Store
	opts    view.Options
	logger  *slog.Logger
}

func (h *handlers) now() time.Time {
	now := time.Now()
	if h.opts.Now != nil {
		now = h.opts.Now()
	}
	if h.opts.Location != nil {
		now = now.In(h.opts.Location)
	}
	return now
}

func (h *handlers) location() *time.Location {
	if h.opts.Location != nil {
		return h.opts.Location
	}
	return time.UTC
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": h.catalog.Count(),
	})
}

// =============================================================================
// Datasets
// =============================================================================

type datasetResponse struct {
	erp.Info
	Columns []core.Column   `json:"columns"`
	Stats   []core.StatSpec `json:"stats"`
	Periods []core.Period   `json:"periods"`
}

func (h *handlers) listDatasets(w http.ResponseWriter, _ *http.Request) {
	all := h.catalog.All()
	infos := make([]erp.Info, 0, len(all))
	for _, ds := range all {
		infos = append(infos, ds.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *handlers) dataset(w http.ResponseWriter, r *http.Request) (erp.Dataset, bool) {
	ds, err := h.catalog.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return ds, true
}

func (h *handlers) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse{
		Info:    ds.Info(),
		Columns: ds.Columns(),
		Stats:   ds.DefaultQuery().Stats,
		Periods: core.Periods(),
	})
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request, ds erp.Dataset) (core.Query, bool) {
	p, err := paramsFrom(r.URL.Query())
	if err == nil {
		var q core.Query
		if q, err = p.Query(ds, h.location()); err == nil {
			return q, true
		}
	}
	h.fail(w, r, badRequest(err))
	return core.Query{}, false
}

func (h *handlers) rows(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	q, ok := h.query(w, r, ds)
	if !ok {
		return
	}
	t, err := ds.Run(q, h.opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type statsResponse struct {
	Dataset string           `json:"dataset"`
	Total   int              `json:"total"`
	Matched int              `json:"matched"`
	Stats   []core.Statistic `json:"stats"`
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	q, ok := h.query(w, r, ds)
	if !ok {
		return
	}
	snap, err := erp.Snapshot(ds, q, h.opts, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Dataset: snap.Dataset,
		Total:   snap.Total,
		Matched: snap.Matched,
		Stats:   snap.Stats,
	})
}

func (h *handlers) aging(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	asOf := h.now()
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, ok := core.ParseDate(s, h.location())
		if !ok {
			h.fail(w, r, badRequest(fmt.Errorf("invalid as_of date %q", s)))
			return
		}
		asOf = t
	}
	report, err := ds.Aging(asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) sla(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	warn := erp.DefaultWarnDays
	if s := r.URL.Query().Get("warn_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(w, r, badRequest(fmt.Errorf("invalid warn_days %q", s)))
			return
		}
		warn = n
	}
	report, err := ds.SLA(h.now(), warn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// export writes every matching record, ignoring the page parameters.
func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, r, badRequest(err))
		return
	}
	q, ok := h.query(w, r, ds)
	if !ok {
		return
	}
	q.Page = core.PageRequest{}
	t, err := ds.Run(q, h.opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name := export.FileName(ds.Info().Name, format, h.now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.Write(w, format, t); err != nil {
		h.logger.Error("export failed", "dataset", ds.Info().Name, "error", err)
	}
}

// =============================================================================
// Snapshots
// =============================================================================

func (h *handlers) listSnapshots(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok || !h.requireStore(w, r) {
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.fail(w, r, badRequest(fmt.Errorf("invalid limit %q", s)))
			return
		}
		limit = n
	}
	snaps, err := h.store.ListSnapshots(ds.Info().Name, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(snaps))
}

func (h *handlers) takeSnapshot(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok || !h.requireStore(w, r) {
		return
	}
	q, ok := h.query(w, r, ds)
	if !ok {
		return
	}
	viewName := r.URL.Query().Get("view")
	if viewName != "" {
		v, err := h.store.GetView(viewName)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		q = v.Query
	}
	snap, err := erp.Snapshot(ds, q, h.opts, viewName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.RecordSnapshot(snap); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// diffSnapshots compares the snapshots named by from and to, or the two
// latest snapshots of the dataset.
func (h *handlers) diffSnapshots(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok || !h.requireStore(w, r) {
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var before, after *core.Snapshot
	if from != "" && to != "" {
		var err error
		if before, err = h.store.GetSnapshot(from); err != nil {
			h.fail(w, r, err)
			return
		}
		if after, err = h.store.GetSnapshot(to); err != nil {
			h.fail(w, r, err)
			return
		}
	} else {
		latest, err := h.store.LatestSnapshots(ds.Info().Name, 2)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if len(latest) < 2 {
			h.fail(w, r, fmt.Errorf("%w: dataset %s needs two snapshots to compare", state.ErrNotFound, ds.Info().Name))
			return
		}
		before, after = latest[0], latest[1]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"before":  before.ID,
		"after":   after.ID,
		"changes": state.DiffSnapshots(before, after),
	})
}

// =============================================================================
// Saved views
// =============================================================================

func (h *handlers) listViews(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	views, err := h.store.ListViews(r.URL.Query().Get("dataset"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(views))
}

func (h *handlers) saveView(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	var v core.SavedView
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		h.fail(w, r, badRequest(fmt.Errorf("invalid view: %w", err)))
		return
	}
	ds, err := h.catalog.Get(v.Dataset)
	if err != nil {
		h.fail(w, r, badRequest(err))
		return
	}
	if len(v.Query.Stats) == 0 {
		v.Query.Stats = ds.DefaultQuery().Stats
	}
	// A failing run rejects views over unknown or unsortable fields.
	if _, err := ds.Run(v.Query, h.opts); err != nil {
		h.fail(w, r, badRequest(err))
		return
	}
	if err := h.store.SaveView(&v); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.store.GetView(v.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) getView(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	v, err := h.store.GetView(chi.URLParam(r, "view"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handlers) deleteView(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	if err := h.store.DeleteView(chi.URLParam(r, "view")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runView runs a saved view. page and size override the saved paging.
func (h *handlers) runView(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	v, err := h.store.GetView(chi.URLParam(r, "view"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ds, err := h.catalog.Get(v.Dataset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := v.Query
	values := r.URL.Query()
	if page, err := intParam(values, "page"); err != nil {
		h.fail(w, r, badRequest(err))
		return
	} else if page > 0 {
		q.Page.Page = page
	}
	if size, err := intParam(values, "size"); err != nil {
		h.fail(w, r, badRequest(err))
		return
	} else if size > 0 {
		q.Page.Size = size
	}
	t, err := ds.Run(q, h.opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if h.store == nil {
		h.fail(w, r, errNoStore)
		return false
	}
	return true
}

// =============================================================================
// Helpers
// =============================================================================

// paramsFrom reads list parameters: q, f.<field>, from, to, date_field,
// period, sort, page, size, stat (repeatable or comma separated) and
// scope.
func paramsFrom(values url.Values) (erp.Params, error) {
	p := erp.Params{
		Search:    values.Get("q"),
		From:      values.Get("from"),
		To:        values.Get("to"),
		DateField: values.Get("date_field"),
		Period:    values.Get("period"),
		Sort:      values.Get("sort"),
		Scope:     values.Get("scope"),
	}
	for key, vals := range values {
		field, ok := strings.CutPrefix(key, "f.")
		if !ok || field == "" || len(vals) == 0 {
			continue
		}
		if p.Filters == nil {
			p.Filters = make(map[string]string)
		}
		p.Filters[field] = vals[len(vals)-1]
	}
	for _, v := range values["stat"] {
		for name := range strings.SplitSeq(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				p.Stats = append(p.Stats, name)
			}
		}
	}

	var err error
	if p.Page, err = intParam(values, "page"); err != nil {
		return p, err
	}
	if p.Size, err = intParam(values, "size"); err != nil {
		return p, err
	}
	return p, nil
}

func intParam(values url.Values, key string) (int, error) {
	s := values.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

// requestError marks an error caused by the request itself.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func statusOf(err error) int {
	var reqErr *requestError
	switch {
	case errors.Is(err, erp.ErrUnknownDataset), errors.Is(err, state.ErrNotFound),
		errors.Is(err, erp.ErrNotSupported):
		return http.StatusNotFound
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &reqErr),
		errors.Is(err, view.ErrUnknownField), errors.Is(err, view.ErrNotFilterable),
		errors.Is(err, view.ErrNotSortable), errors.Is(err, view.ErrNotNumeric),
		errors.Is(err, view.ErrNotDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

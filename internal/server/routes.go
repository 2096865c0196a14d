package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes(r chi.Router) {
	h := &handlers{
		catalog: s.catalog,
		store:   s.store,
		opts:    s.opts,
		logger:  s.logger,
	}

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/api/events", s.events)

	r.Route("/api/datasets", func(r chi.Router) {
		r.Get("/", h.listDatasets)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.getDataset)
			r.Get("/rows", h.rows)
			r.Get("/stats", h.stats)
			r.Get("/aging", h.aging)
			r.Get("/sla", h.sla)
			r.Get("/export.{format}", h.export)
			r.Get("/snapshots", h.listSnapshots)
			r.Post("/snapshots", h.takeSnapshot)
			r.Get("/snapshots/diff", h.diffSnapshots)
		})
	})

	r.Route("/api/views", func(r chi.Router) {
		r.Get("/", h.listViews)
		r.Post("/", h.saveView)
		r.Get("/{view}", h.getView)
		r.Delete("/{view}", h.deleteView)
		r.Get("/{view}/rows", h.runView)
	})
}

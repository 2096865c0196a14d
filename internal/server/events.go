package server

import (
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

// catalogSignals is the state pushed to event stream clients after a reload.
type catalogSignals struct {
	ReloadedAt time.Time `json:"reloadedAt"`
	Datasets   []string  `json:"datasets"`
}

// events streams a patch-signals event with the dataset names each time the
// catalog is reloaded, until the client disconnects.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			signals := catalogSignals{
				ReloadedAt: time.Now().UTC(),
				Datasets:   s.catalog.Names(),
			}
			if err := sse.MarshalAndPatchSignals(signals); err != nil {
				s.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

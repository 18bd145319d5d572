package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/history"
)

// FactoryView is the JSON shape of one discovered factory.
type FactoryView struct {
	Name        string        `json:"name"`
	Module      string        `json:"module"`
	Skip        bool          `json:"skip"`
	DynamicSkip bool          `json:"dynamic_skip,omitempty"`
	Timeout     time.Duration `json:"timeout_ns"`
	Mock        bool          `json:"mock"`
	Built       bool          `json:"built"`
	Device      string        `json:"device,omitempty"`
}

func newFactoryView(f factory.Factory) FactoryView {
	cfg := f.Config()
	v := FactoryView{
		Name:        f.Name(),
		Module:      f.Module(),
		Skip:        f.Skip(),
		DynamicSkip: cfg.Skip.Dynamic(),
		Timeout:     cfg.Timeout,
		Mock:        cfg.Mock,
	}
	if d, ok := f.CachedDevice(); ok {
		v.Built = true
		v.Device = d.Name()
	}
	return v
}

// handleListFactories lists the module's factories in discovery order.
// ?all=true includes skipped factories; ?module_only=true ignores shared modules.
func (s *Server) handleListFactories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, err := queryBool(q.Get("all"))
	if err != nil {
		writeBadRequest(w, "all must be a boolean")
		return
	}
	moduleOnly, err := queryBool(q.Get("module_only"))
	if err != nil {
		writeBadRequest(w, "module_only must be a boolean")
		return
	}

	found := factory.Discover(s.module, factory.DiscoverOptions{
		IncludeSkipped: all,
		ModuleOnly:     moduleOnly,
	})
	views := make([]FactoryView, 0, len(found))
	for _, f := range found {
		views = append(views, newFactoryView(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"module":    s.module.Name(),
		"count":     len(views),
		"factories": views,
	})
}

// handleListRuns lists stored connection runs for the served beamline.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "connection history is not enabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(r.Context(), s.facility.Beamline.ID(), limit)
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func queryBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/beamline-core/internal/device"
)

const apiPrefix = "/api/v1"

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	wsPath := s.hub.cfg.Path
	if wsPath == "" {
		wsPath = apiPrefix + "/ws"
	}

	r.Route(apiPrefix, func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/connect", s.handleConnectDevice)
			})
		})

		r.Get("/factories", s.handleListFactories)
		r.Get("/runs", s.handleListRuns)

		if sub, ok := strings.CutPrefix(wsPath, apiPrefix); ok && sub != "" {
			r.Get(sub, s.handleWebSocket)
		}
	})

	if !strings.HasPrefix(wsPath, apiPrefix+"/") {
		r.Get(wsPath, s.handleWebSocket)
	}

	r.Handle("/metrics", s.metricsHandler())

	return r
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Beamline  string `json:"beamline"`
	Devices   int    `json:"devices"`
	Connected int    `json:"connected"`
	Clients   int    `json:"websocket_clients"`
	Uptime    string `json:"uptime"`
}

// handleHealth reports "ok" when every registered device is connected and
// "degraded" otherwise. Both answer 200; the server itself is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	entries := s.registry.Entries()
	connected := 0
	for _, e := range entries {
		if e.State == device.StateConnected {
			connected++
		}
	}
	status := "ok"
	if connected < len(entries) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   s.version,
		Beamline:  s.facility.Beamline.ID(),
		Devices:   len(entries),
		Connected: connected,
		Clients:   s.hub.ClientCount(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) metricsHandler() http.Handler {
	if s.metrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeNotFound(w, "metrics are not enabled")
		})
	}
	return s.metrics.Handler()
}

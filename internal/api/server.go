package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/beamline-core/internal/device"
	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/history"
	"github.com/nerrad567/beamline-core/internal/infrastructure/config"
	"github.com/nerrad567/beamline-core/internal/infrastructure/logging"
	"github.com/nerrad567/beamline-core/internal/telemetry"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies of the inspection server.
type Deps struct {
	Config config.APIConfig
	WS     config.WebSocketConfig
	Logger *logging.Logger

	// Module is the beamline module whose devices are served. Required.
	Module *factory.Module

	// Metrics, when set, is served on /metrics and updated on reconnects.
	Metrics *telemetry.Metrics
	// History, when set, adds recent failures to device details.
	History history.Repository

	// Connect is used for reconnects of devices no controller owns.
	Connect factory.ConnectOptions
	// RetryInterval is how often failed devices are retried. Zero disables it.
	RetryInterval time.Duration

	Version string
}

// Server is the HTTP inspection server for one beamline.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	module   *factory.Module
	facility *factory.Facility
	registry *device.Registry
	metrics  *telemetry.Metrics
	history  history.Repository
	connect  factory.ConnectOptions
	retry    time.Duration
	version  string
	started  time.Time

	hub *Hub

	// connectMu serializes reconnects; controllers assume one driver at a time.
	connectMu sync.Mutex

	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Module == nil {
		return nil, fmt.Errorf("beamline module is required")
	}

	f := deps.Module.Facility()
	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		module:   deps.Module,
		facility: f,
		registry: f.Devices,
		metrics:  deps.Metrics,
		history:  deps.History,
		connect:  deps.Connect,
		retry:    deps.RetryInterval,
		version:  deps.Version,
		started:  time.Now(),
		hub:      NewHub(deps.WS, deps.Logger),
	}
	s.registry.OnChange(s.publishEntry)
	return s, nil
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start listens on the configured address and serves in the background.
// It also starts the WebSocket hub and, when enabled, the retry loop.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(srvCtx)
	}()

	if s.retry > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.retryLoop(srvCtx, s.retry)
		}()
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started",
		"address", ln.Addr().String(),
		"beamline", s.facility.Beamline.ID(),
		"retry_interval", s.retry,
	)
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops background work and shuts the listener down, waiting up to
// gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// publishEntry forwards a registry change to WebSocket clients.
func (s *Server) publishEntry(e device.Entry) {
	s.hub.Broadcast(ChannelDeviceState, newDeviceView(e))
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/beamline-core/internal/device"
	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/history"
)

// StateRemoved marks a view of a device that left the registry.
const StateRemoved = "removed"

// recentFailureLimit caps the failures attached to a device detail.
const recentFailureLimit = 10

// DeviceView is the JSON shape of one registry entry.
type DeviceView struct {
	Name      string       `json:"name"`
	Type      string       `json:"type,omitempty"`
	Strategy  string       `json:"strategy,omitempty"`
	State     string       `json:"state"`
	LastError string       `json:"last_error,omitempty"`
	ErrorKind factory.Kind `json:"error_kind,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newDeviceView(e device.Entry) DeviceView {
	v := DeviceView{
		Name:      e.Name,
		State:     string(e.State),
		UpdatedAt: e.UpdatedAt,
	}
	if e.Device == nil {
		v.State = StateRemoved
		return v
	}
	v.Type = e.Type
	v.Strategy = e.Strategy.String()
	if e.LastError != nil {
		v.LastError = e.LastError.Error()
		v.ErrorKind = factory.KindOf(e.LastError)
	}
	return v
}

// DeviceList is the body of GET /api/v1/devices.
type DeviceList struct {
	Beamline string       `json:"beamline"`
	Count    int          `json:"count"`
	Devices  []DeviceView `json:"devices"`
}

// DeviceDetail is the body of GET /api/v1/devices/{name}.
type DeviceDetail struct {
	DeviceView
	Factory        string                  `json:"factory,omitempty"`
	Module         string                  `json:"module,omitempty"`
	RecentFailures []history.DeviceFailure `json:"recent_failures,omitempty"`
}

// ConnectResponse is the body of POST /api/v1/devices/{name}/connect.
type ConnectResponse struct {
	Device    DeviceView `json:"device"`
	Connected bool       `json:"connected"`
	Error     string     `json:"error,omitempty"`
}

// handleListDevices lists registry entries in registration order.
// ?state=built|connected filters by state.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	want := r.URL.Query().Get("state")
	switch device.State(want) {
	case "", device.StateBuilt, device.StateConnected:
	default:
		writeBadRequest(w, fmt.Sprintf("unknown state %q", want))
		return
	}

	views := make([]DeviceView, 0, s.registry.Len())
	for _, e := range s.registry.Entries() {
		if want != "" && string(e.State) != want {
			continue
		}
		views = append(views, newDeviceView(e))
	}
	writeJSON(w, http.StatusOK, DeviceList{
		Beamline: s.facility.Beamline.ID(),
		Count:    len(views),
		Devices:  views,
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.registry.Entry(name)
	if !ok {
		writeNotFound(w, fmt.Sprintf("device %q not found", name))
		return
	}

	detail := DeviceDetail{DeviceView: newDeviceView(e)}
	if f, ok := s.controllerFor(name); ok {
		detail.Factory = f.Name()
		detail.Module = f.Module()
	}
	if s.history != nil {
		failures, err := s.history.DeviceFailures(r.Context(), s.facility.Beamline.ID(), name, recentFailureLimit)
		if err != nil {
			s.logger.Warn("loading device failures", "device", name, "error", err)
		} else {
			detail.RecentFailures = failures
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleConnectDevice retries one device. The device keeps its identity:
// the owning controller reconnects its cached instance.
func (s *Server) handleConnectDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.registry.Entry(name); !ok {
		writeNotFound(w, fmt.Sprintf("device %q not found", name))
		return
	}

	err := s.reconnect(r.Context(), name)
	e, ok := s.registry.Entry(name)
	if !ok {
		writeNotFound(w, fmt.Sprintf("device %q was removed", name))
		return
	}

	resp := ConnectResponse{Device: newDeviceView(e), Connected: err == nil}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Error = err.Error()

	status := http.StatusInternalServerError
	switch factory.KindOf(err) {
	case factory.KindTimedOut:
		status = http.StatusGatewayTimeout
	case factory.KindConnectFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// controllerFor finds the factory whose cached device is registered under
// name, falling back to a factory of that name.
func (s *Server) controllerFor(name string) (factory.Factory, bool) {
	all := factory.Discover(s.module, factory.DiscoverOptions{IncludeSkipped: true})
	for _, f := range all {
		if d, ok := f.CachedDevice(); ok && d.Name() == name {
			return f, true
		}
	}
	for _, f := range all {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// reconnect connects the named device again and records the outcome in
// the registry and metrics.
func (s *Server) reconnect(ctx context.Context, name string) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	var err error
	if f, ok := s.controllerFor(name); ok {
		opts := []factory.CallOption{factory.ConnectNow()}
		if s.connect.Mock {
			opts = append(opts, factory.WithMock(true))
		}
		if s.connect.Timeout > 0 {
			opts = append(opts, factory.WithTimeout(s.connect.Timeout))
		}
		_, err = f.Build(ctx, opts...)
	} else {
		d, found := s.registry.Get(name)
		if !found {
			return fmt.Errorf("reconnecting %s: %w", name, device.ErrNotFound)
		}
		set := factory.NewDeviceSet()
		set.Add(name, d)
		opts := s.connect
		opts.Registry = s.registry
		_, failed := factory.Connect(ctx, set, opts)
		if cause, bad := failed.Get(name); bad {
			err = cause
		}
	}

	if s.metrics != nil {
		s.metrics.SetDeviceUp(s.facility.Beamline.ID(), name, err == nil)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Info("device reconnect failed", "device", name, "kind", factory.KindOf(err), "error", err)
	}
	return err
}

// RetrySummary is broadcast on ChannelRetry after each retry pass.
type RetrySummary struct {
	Retried   []string `json:"retried"`
	Recovered []string `json:"recovered"`
}

// retryFailed reconnects every device whose last attempt failed.
func (s *Server) retryFailed(ctx context.Context) RetrySummary {
	var sum RetrySummary
	for _, e := range s.registry.Entries() {
		if e.State == device.StateConnected || e.LastError == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		sum.Retried = append(sum.Retried, e.Name)
		if err := s.reconnect(ctx, e.Name); err == nil {
			sum.Recovered = append(sum.Recovered, e.Name)
		}
	}
	return sum
}

func (s *Server) retryLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sum := s.retryFailed(ctx)
			if len(sum.Retried) == 0 {
				continue
			}
			s.logger.Info("retry pass complete",
				"retried", len(sum.Retried),
				"recovered", len(sum.Recovered),
			)
			s.hub.Broadcast(ChannelRetry, sum)
		}
	}
}

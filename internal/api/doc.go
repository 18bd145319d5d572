// Package api implements the HTTP inspection server for one beamline.
//
// The server exposes the device registry of a built beamline module:
//   - GET  /api/v1/health: overall connection status
//   - GET  /api/v1/devices: registry entries in registration order
//   - GET  /api/v1/devices/{name}: one entry, with recent failures when history is enabled
//   - POST /api/v1/devices/{name}/connect: reconnect one device, keeping its identity
//   - GET  /api/v1/factories: discovery listing (?all=true, ?module_only=true)
//   - GET  /api/v1/runs: stored connection runs
//   - GET  /metrics: Prometheus exposition
//   - GET  /api/v1/ws: WebSocket feed of registry changes
//
// Every registry change is broadcast on the "device.state" channel, to
// which new WebSocket clients are subscribed on connect. When a retry
// interval is configured, failed devices are reconnected in the background
// and each pass is summarised on "connect.retry".
//
// Lifecycle:
//
//	srv, err := api.New(deps)
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Close()
//
// Reconnects are serialized: a factory controller is only ever driven by
// one request or retry pass at a time.
package api

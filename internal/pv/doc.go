// Package pv abstracts reachability of EPICS process variables.
//
// Devices depend on a Transport to learn whether the PVs they bind to are
// being served. Three transports exist:
//
//   - Offline: every PV is unreachable; used when no gateway is configured
//   - Mock: every PV is reachable, optionally after a per-PV delay
//   - MQTTTransport: a PV is reachable once its gateway status topic has a
//     (retained) message
package pv

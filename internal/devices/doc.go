// Package devices contains the device kinds the beamline catalogue builds.
//
// Each kind binds to a handful of PVs under a prefix and connects by
// asking its pv.Transport to reach all of them. Cooperative kinds (Motor,
// Detector, Synchrotron, Undulator) implement device.Connector; the legacy
// Shutter only implements device.Waiter.
package devices

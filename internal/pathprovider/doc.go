// Package pathprovider tells detectors where to write their data.
//
// A Slot holds the provider for one facility; reading it before Set fails
// with ErrNotConfigured. StaticVisit is the stock provider: it writes every
// file of a collection into one directory and names files
// "<beamline>-<collection>-<device>", with collection numbers drawn from a
// local counter or a remote numtracker service.
package pathprovider

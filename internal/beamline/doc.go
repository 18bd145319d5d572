// Package beamline holds the identity of the beamline a process is driving
// and derives the PV prefixes device factories bind to.
//
// Identifiers look like "i22" or "i04-1". The prefix suffix defaults to the
// first letter uppercased, so "i22" yields beamline prefix "BL22I" and
// insertion-device prefix "SR22I".
//
// The BEAMLINE environment variable always wins over the identifier passed
// to Set, which lets a simulator module run against a live beamline.
package beamline

// Package cli implements the beamline command tree.
//
// Commands:
//
//	beamline connect [beamline] [--all] [--sim-backend] [--module-only] [--timeout d]
//	beamline list    [beamline] [--all] [--module-only]
//	beamline history [beamline] [--limit n] [--failures]
//	beamline serve   [beamline] [--all] [--sim-backend] [--module-only]
//	beamline version
//
// connect is the bulk health check: it describes the beamline, installs a
// throwaway visit path provider, builds every discovered factory, connects
// the results and prints the failures. Its report goes to every enabled
// sink. ExitCode turns the returned error into the process exit status.
package cli

package beamline

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EnvVar names the environment variable that overrides beamline identity.
const EnvVar = "BEAMLINE"

var idPattern = regexp.MustCompile(`^[a-z](\d{2})(-\d+)?$`)

// Prefix is the pair of PV prefixes derived from a beamline identifier.
type Prefix struct {
	// Beamline is the end-station prefix, e.g. "BL22I".
	Beamline string
	// Insertion is the insertion-device prefix, e.g. "SR22I".
	Insertion string
	// Suffix is the single character appended to both roots.
	Suffix string
}

// NewPrefix derives prefixes for id. An empty suffix defaults to the
// first character of id, uppercased.
func NewPrefix(id, suffix string) (Prefix, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Prefix{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if suffix == "" {
		suffix = strings.ToUpper(id[:1])
	}
	digits := m[1]
	return Prefix{
		Beamline:  "BL" + digits + suffix,
		Insertion: "SR" + digits + suffix,
		Suffix:    suffix,
	}, nil
}

// Name returns $BEAMLINE when set, otherwise fallback.
func Name(fallback string) string {
	if v := os.Getenv(EnvVar); v != "" {
		return v
	}
	return fallback
}

// SimulatorID returns the simulator identifier for a beamline,
// e.g. "i03" becomes "s03". Identifiers that are already simulators or do
// not parse are returned unchanged.
func SimulatorID(id string) string {
	if !idPattern.MatchString(id) || IsSimulator(id) {
		return id
	}
	return "s" + id[1:]
}

// IsSimulator reports whether id names a simulated beamline.
func IsSimulator(id string) bool {
	return strings.HasPrefix(id, "s")
}

package health

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/beamline-core/internal/factory"
)

// Failure is one device that did not connect.
type Failure struct {
	Device string       `json:"device"`
	Kind   factory.Kind `json:"kind"`
	Error  string       `json:"error"`
}

// Report summarises one bulk connection run.
type Report struct {
	RunID     uuid.UUID     `json:"run_id"`
	Beamline  string        `json:"beamline"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Mock      bool          `json:"mock"`
	Connected []string      `json:"connected"`
	Failures  []Failure     `json:"failures"`
}

// NewReport builds the report for a run that started at started and
// finished at finished. Build errors come before connect errors, each in
// discovery order.
func NewReport(beamline string, started, finished time.Time, mock bool, res *factory.ConnectionResult) *Report {
	r := &Report{
		RunID:     uuid.New(),
		Beamline:  beamline,
		StartedAt: started.UTC(),
		Duration:  finished.Sub(started),
		Mock:      mock,
		Connected: []string{},
		Failures:  []Failure{},
	}
	if res == nil {
		return r
	}
	r.Connected = res.Devices.Names()
	for name, err := range res.Failures().All() {
		r.Failures = append(r.Failures, Failure{
			Device: name,
			Kind:   factory.KindOf(err),
			Error:  err.Error(),
		})
	}
	return r
}

// OK reports whether every device connected.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

// Total returns the number of devices the run covered.
func (r *Report) Total() int { return len(r.Connected) + len(r.Failures) }

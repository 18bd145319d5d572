package history

import (
	"context"

	"github.com/nerrad567/beamline-core/internal/health"
)

// Sink records reports in a Repository.
type Sink struct {
	repo Repository
}

// NewSink returns a health.Sink backed by repo.
func NewSink(repo Repository) *Sink { return &Sink{repo: repo} }

// Name returns "history".
func (s *Sink) Name() string { return "history" }

// Record stores r.
func (s *Sink) Record(ctx context.Context, r *health.Report) error {
	return s.repo.RecordRun(ctx, r)
}

var _ health.Sink = (*Sink)(nil)

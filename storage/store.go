// Package storage archives evolutionary runs: genome snapshots in the
// minimal serialized form the neat core defines, per-run metadata, and
// fitness history. An in-memory backend is always available; a sqlite
// backend is compiled in with the "sqlite" build tag.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baldhumanity/neatcore/neat"
)

// RunRecord is the metadata kept per evolutionary run.
type RunRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"best_fitness"`
}

// NewRunID mints a unique identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists run state. Genomes are stored in their GenomeRecord form,
// keyed by run and genome id, which is exactly the contract needed to resume
// evolution or replay a phenotype later.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	SaveGenome(ctx context.Context, runID string, genome neat.GenomeRecord) error
	GetGenome(ctx context.Context, runID string, genomeID int) (neat.GenomeRecord, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}

// CloseIfSupported closes backends that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

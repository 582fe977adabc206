package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/baldhumanity/neatcore/neat"
)

type genomeKey struct {
	runID    string
	genomeID int
}

// MemoryStore keeps archived runs in process memory. Useful for tests and
// short experiments where durability is not needed.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
	genomes     map[genomeKey]neat.GenomeRecord
	history     map[string][]float64
}

// NewMemoryStore creates an uninitialized in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.genomes = make(map[genomeKey]neat.GenomeRecord)
	s.history = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInit(); err != nil {
		return err
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, runID string, genome neat.GenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInit(); err != nil {
		return err
	}
	// Roundtrip through the codec so memory and sqlite backends reject the
	// same malformed payloads.
	payload, err := EncodeGenome(genome)
	if err != nil {
		return err
	}
	decoded, err := DecodeGenome(payload)
	if err != nil {
		return fmt.Errorf("encode genome %d: %w", genome.ID, err)
	}
	s.genomes[genomeKey{runID: runID, genomeID: genome.ID}] = decoded
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, runID string, genomeID int) (neat.GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[genomeKey{runID: runID, genomeID: genomeID}]
	return genome, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInit(); err != nil {
		return err
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) checkInit() error {
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}

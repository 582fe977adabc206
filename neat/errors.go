package neat

import "errors"

// Sentinel errors for invariant violations detected by the core.
//
// A cycle in the enabled-connection graph or a duplicate innovation id both
// indicate a bug upstream (in mutation, crossover, or tracker usage) and are
// fatal for the genome or generation that produced them. They are surfaced to
// the caller rather than silently repaired.
var (
	// ErrCycleDetected is returned when the enabled-connection subgraph of a
	// genome is not a DAG. Phenotype construction is the last line of defense
	// before a network is handed to an evaluator, so the check there is
	// mandatory even though mutation and crossover preserve acyclicity.
	ErrCycleDetected = errors.New("cycle detected in enabled connection graph")

	// ErrDuplicateInnovation indicates the innovation tracker handed out the
	// same id for two distinct structural shapes. This only happens when the
	// tracker is accessed concurrently without serialization and must abort
	// the generation: alignment across the population is already corrupted.
	ErrDuplicateInnovation = errors.New("duplicate innovation assignment")

	// ErrInvariantViolation wraps defensive-check failures, e.g. a crossover
	// product that would be cyclic despite both parents being valid.
	ErrInvariantViolation = errors.New("genome invariant violation")

	// ErrNotEvaluated is returned when an operation needs a fitness value but
	// the genome has not been evaluated yet. A missing fitness is never
	// treated as zero.
	ErrNotEvaluated = errors.New("genome has not been evaluated")
)

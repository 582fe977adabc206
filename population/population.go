// Package population drives generations of neuroevolution over the neat
// core: evaluation, selection, crossover, and mutation, separated by
// explicit synchronous barriers so no genome is ever evaluated while the
// structure of its generation is still changing.
package population

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/baldhumanity/neatcore/neat"
)

// Evaluator computes a fitness score for one phenotype. It is the only
// operation in a generation expected to block (for example on simulation
// time-stepping); the driver bounds each call with the configured timeout.
// Evaluators never see genome internals, only the compiled plan.
type Evaluator interface {
	Evaluate(ctx context.Context, p *neat.Phenotype) (float64, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, p *neat.Phenotype) (float64, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, p *neat.Phenotype) (float64, error) {
	return f(ctx, p)
}

// Population holds the state of one evolutionary run.
type Population struct {
	Config     *neat.Config
	Genomes    map[int]*neat.Genome
	Tracker    *neat.InnovationTracker
	Generation int
	Best       *neat.Genome

	speciesSet   *SpeciesSet
	stagnation   *Stagnation
	mutation     *neat.MutationEngine
	crossover    *neat.CrossoverEngine
	rng          *rand.Rand
	nextGenomeID int
}

// New creates a population of seed genomes and a fresh innovation tracker
// scoped to this run. The rng seed makes runs reproducible; engines share
// this single source because mutation and crossover run single-threaded.
func New(cfg *neat.Config, seed int64) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stagnation, err := NewStagnation(&cfg.Stagnation)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	tracker := neat.NewInnovationTracker(cfg.Genome.SeedNodeCount())

	p := &Population{
		Config:       cfg,
		Genomes:      make(map[int]*neat.Genome, cfg.Neat.PopSize),
		Tracker:      tracker,
		speciesSet:   NewSpeciesSet(&cfg.SpeciesSet),
		stagnation:   stagnation,
		mutation:     neat.NewMutationEngine(&cfg.Genome, tracker, rng),
		crossover:    neat.NewCrossoverEngine(&cfg.Genome, rng),
		rng:          rng,
		nextGenomeID: 1,
	}

	for i := 0; i < cfg.Neat.PopSize; i++ {
		g, err := neat.NewSeedGenome(p.nextID(), &cfg.Genome, tracker, rng)
		if err != nil {
			return nil, err
		}
		p.Genomes[g.ID] = g
	}
	return p, nil
}

func (p *Population) nextID() int {
	id := p.nextGenomeID
	p.nextGenomeID++
	return id
}

// RunGeneration executes one generation: parallel fitness evaluation, then
// (behind a barrier) selection and reproduction. It returns the winning
// genome if the fitness threshold was reached, otherwise nil.
//
// A phenotype build failure aborts the generation: a cycle at that boundary
// means a core invariant was violated upstream and continuing would evaluate
// a corrupt individual. An evaluator error or timeout is recovered locally
// by assigning the configured worst fitness; it never touches the genome's
// structure.
func (p *Population) RunGeneration(ctx context.Context, eval Evaluator) (*neat.Genome, error) {
	p.Generation++

	if err := p.evaluateAll(ctx, eval); err != nil {
		return nil, fmt.Errorf("generation %d: %w", p.Generation, err)
	}

	best := p.findBest()
	if best != nil && (p.Best == nil || *best.Fitness > *p.Best.Fitness) {
		p.Best = best
		fmt.Printf("Generation %d: new best genome %d, fitness %.4f\n", p.Generation, best.ID, *best.Fitness)
	}

	if !p.Config.Neat.NoFitnessTermination && p.Best != nil &&
		*p.Best.Fitness >= p.Config.Neat.FitnessThreshold {
		return p.Best, nil
	}

	next, err := p.reproduce()
	if err != nil {
		return nil, fmt.Errorf("generation %d: reproduction failed: %w", p.Generation, err)
	}
	p.Genomes = next
	return nil, nil
}

// evaluateAll runs fitness evaluation for every genome on a worker pool.
// Distinct genomes share no mutable state, so workers only ever write their
// own genome's fitness. The innovation tracker is untouched during this
// phase.
func (p *Population) evaluateAll(ctx context.Context, eval Evaluator) error {
	workers := p.Config.Neat.EvalParallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan *neat.Genome)
	fatal := make(chan error, 1)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				ph, err := neat.BuildPhenotype(g)
				if err != nil {
					select {
					case fatal <- fmt.Errorf("genome %d: %w", g.ID, err):
					default:
					}
					continue
				}

				evalCtx := ctx
				cancel := context.CancelFunc(func() {})
				if p.Config.Neat.EvalTimeout > 0 {
					evalCtx, cancel = context.WithTimeout(ctx, p.Config.Neat.EvalTimeout)
				}
				fitness, err := eval.Evaluate(evalCtx, ph)
				cancel()
				if err != nil {
					fmt.Printf("Warning: evaluation of genome %d failed (%v); assigning worst fitness\n", g.ID, err)
					g.SetFitness(p.Config.Neat.WorstFitness)
					continue
				}
				g.SetFitness(fitness)
			}
		}()
	}

	for _, g := range p.Genomes {
		jobs <- g
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-fatal:
		return err
	default:
		return nil
	}
}

func (p *Population) findBest() *neat.Genome {
	var best *neat.Genome
	maxFitness := math.Inf(-1)
	for _, g := range p.Genomes {
		if g.Evaluated() && *g.Fitness > maxFitness {
			maxFitness = *g.Fitness
			best = g
		}
	}
	return best
}

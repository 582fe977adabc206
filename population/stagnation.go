package population

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/baldhumanity/neatcore/neat"
)

// Stagnation detects species whose summarized fitness has stopped improving
// and marks them for removal, sparing the configured number of elite species.
type Stagnation struct {
	cfg       *neat.StagnationConfig
	summarize func([]float64) float64
}

// NewStagnation creates a stagnation manager.
func NewStagnation(cfg *neat.StagnationConfig) (*Stagnation, error) {
	fn, ok := neat.StatFunctions[strings.ToLower(cfg.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", cfg.SpeciesFitnessFunc)
	}
	return &Stagnation{cfg: cfg, summarize: fn}, nil
}

// StagnationInfo reports the stagnation verdict for one species.
type StagnationInfo struct {
	Species    *Species
	IsStagnant bool
}

// Update refreshes every species' fitness summary and history, then marks as
// stagnant those that have not improved within MaxStagnation generations.
// The top SpeciesElitism species by fitness are never marked.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	species := make([]*Species, 0, len(speciesSet.Species))
	for _, sp := range speciesSet.Species {
		prevMax := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			prevMax = neat.MaxFloat(sp.FitnessHistory)
		}

		fitnesses := sp.memberFitnesses()
		if len(fitnesses) == 0 {
			sp.Fitness = math.Inf(-1)
		} else {
			sp.Fitness = s.summarize(fitnesses)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0

		if sp.Fitness > prevMax {
			sp.LastImproved = generation
		}
		species = append(species, sp)
	}

	// Least fit first; the elite tail is immune to stagnation removal.
	sort.Slice(species, func(a, b int) bool { return species[a].Fitness < species[b].Fitness })

	result := make([]StagnationInfo, len(species))
	for i, sp := range species {
		isElite := len(species)-i <= s.cfg.SpeciesElitism
		stagnant := generation-sp.LastImproved >= s.cfg.MaxStagnation && !isElite
		result[i] = StagnationInfo{Species: sp, IsStagnant: stagnant}
	}
	return result
}

package population

import (
	"math"
	"sort"

	"github.com/baldhumanity/neatcore/neat"
)

// Species groups genetically similar genomes so that fitness is shared
// within the group, protecting fresh topological innovations from immediate
// competition with the whole population.
type Species struct {
	ID              int
	Created         int
	LastImproved    int
	Representative  *neat.Genome
	Members         []*neat.Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// SpeciesSet partitions a population into species by compatibility distance.
// A zero threshold disables speciation entirely.
type SpeciesSet struct {
	Species map[int]*Species
	indexer int
	cfg     *neat.SpeciesSetConfig
}

// NewSpeciesSet creates a species set manager.
func NewSpeciesSet(cfg *neat.SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species: make(map[int]*Species),
		indexer: 1,
		cfg:     cfg,
	}
}

// Enabled reports whether speciation is active.
func (ss *SpeciesSet) Enabled() bool {
	return ss.cfg.CompatibilityThreshold > 0
}

// Remove drops a species, typically after stagnation.
func (ss *SpeciesSet) Remove(id int) {
	delete(ss.Species, id)
}

// Speciate partitions the population. Each existing species first claims the
// unassigned genome closest to its previous representative as its new
// representative; remaining genomes join the species whose representative is
// nearest within the compatibility threshold, or found a new species.
func (ss *SpeciesSet) Speciate(cfg *neat.GenomeConfig, genomes map[int]*neat.Genome, generation int) {
	unassigned := make(map[int]*neat.Genome, len(genomes))
	for id, g := range genomes {
		unassigned[id] = g
	}

	// Deterministic species visiting order.
	speciesIDs := make([]int, 0, len(ss.Species))
	for id := range ss.Species {
		speciesIDs = append(speciesIDs, id)
	}
	sort.Ints(speciesIDs)

	for _, sid := range speciesIDs {
		sp := ss.Species[sid]
		if len(unassigned) == 0 || sp.Representative == nil {
			ss.Remove(sid)
			continue
		}

		var newRep *neat.Genome
		minDist := math.Inf(1)
		for _, g := range sortedByID(unassigned) {
			d := sp.Representative.Distance(g, cfg)
			if d < minDist {
				minDist = d
				newRep = g
			}
		}
		sp.Representative = newRep
		sp.Members = []*neat.Genome{newRep}
		delete(unassigned, newRep.ID)
	}

	for _, g := range sortedByID(unassigned) {
		bestID := -1
		minDist := math.Inf(1)
		for _, sid := range speciesIDs {
			sp, ok := ss.Species[sid]
			if !ok {
				continue
			}
			d := sp.Representative.Distance(g, cfg)
			if d < ss.cfg.CompatibilityThreshold && d < minDist {
				minDist = d
				bestID = sid
			}
		}

		if bestID >= 0 {
			ss.Species[bestID].Members = append(ss.Species[bestID].Members, g)
			continue
		}

		sid := ss.indexer
		ss.indexer++
		ss.Species[sid] = &Species{
			ID:             sid,
			Created:        generation,
			LastImproved:   generation,
			Representative: g,
			Members:        []*neat.Genome{g},
		}
		speciesIDs = append(speciesIDs, sid)
	}
}

// memberFitnesses returns the fitness values of all evaluated members.
func (s *Species) memberFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		if g.Evaluated() {
			fitnesses = append(fitnesses, *g.Fitness)
		}
	}
	return fitnesses
}

func sortedByID(genomes map[int]*neat.Genome) []*neat.Genome {
	out := make([]*neat.Genome, 0, len(genomes))
	for _, g := range genomes {
		out = append(out, g)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
